package translate

// Observer resolves entity and field names while a query is translated.
// Implementations may rename or validate; they must be safe for concurrent
// use because one observer is typically shared by every statement.
type Observer interface {
	FireEntity(entity string) string
	FireSelectField(entity, field string) string
	FireSortProperty(entity, property string) string
}

// IdentityObserver returns every name unchanged.
type IdentityObserver struct{}

func (IdentityObserver) FireEntity(entity string) string { return entity }

func (IdentityObserver) FireSelectField(_, field string) string { return field }

func (IdentityObserver) FireSortProperty(_, property string) string { return property }

// orIdentity returns obs, or IdentityObserver when obs is nil.
func orIdentity(obs Observer) Observer {
	if obs == nil {
		return IdentityObserver{}
	}
	return obs
}
