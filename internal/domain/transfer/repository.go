package transfer

import "context"

type Repository interface {
	LoadAll(ctx context.Context) ([]Event, error)
	SaveAll(ctx context.Context, events []Event) error
}
