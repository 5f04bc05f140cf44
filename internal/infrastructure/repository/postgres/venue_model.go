package postgres

import "time"

type complexTableModel struct {
	ID                  string     `db:"id"`
	Name                string     `db:"name"`
	Timezone            string     `db:"timezone"`
	ProcessorCredential []byte     `db:"processor_credential"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
	DeletedAt           *time.Time `db:"deleted_at"`
}
