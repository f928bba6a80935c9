package season

import "context"

// Repository exposes season read and write operations. At most one
// season per competition carries Current=true; GetCurrent is the
// read-before-write guard that keeps Insert from duplicating it.
type Repository interface {
	GetCurrent(ctx context.Context, competition string) (Season, bool, error)
	GetByID(ctx context.Context, id string) (Season, bool, error)
	Insert(ctx context.Context, item Season) (string, error)
}
