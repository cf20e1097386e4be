package door

import "context"

// Registry resolves doors by id. It serves the dashboard door from memory and
// delegates everything else to a Store.
type Registry struct {
	store     Store
	dashboard Door
}

func NewRegistry(store Store, dashboard Door) *Registry {
	dashboard.ID = DashboardID

	return &Registry{
		store:     store,
		dashboard: dashboard,
	}
}

func (r *Registry) List(ctx context.Context) ([]Door, error) {
	return r.store.List(ctx)
}

func (r *Registry) Get(ctx context.Context, id int64) (*Door, error) {
	if id == DashboardID {
		d := r.dashboard
		return &d, nil
	}

	return r.store.Get(ctx, id)
}

func (r *Registry) Create(ctx context.Context, in CreateInput) (*Door, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}

	return r.store.Create(ctx, in)
}

// Update changes a stored door. The dashboard is not editable: updating it
// returns it unchanged.
func (r *Registry) Update(ctx context.Context, id int64, in UpdateInput) (*Door, error) {
	if id == DashboardID {
		return r.Get(ctx, id)
	}

	if err := in.Normalize(); err != nil {
		return nil, err
	}

	return r.store.Update(ctx, id, in)
}

func (r *Registry) Delete(ctx context.Context, id int64) error {
	if id == DashboardID {
		return invalid("id", "The dashboard cannot be deleted")
	}

	return r.store.Delete(ctx, id)
}

func (r *Registry) Close() error {
	return r.store.Close()
}
