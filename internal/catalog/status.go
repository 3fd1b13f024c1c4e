package catalog

// TourStatus represents lifecycle states of a tour listing.
type TourStatus string

const (
	TourDraft     TourStatus = "draft"
	TourPublished TourStatus = "published"
	TourArchived  TourStatus = "archived"
)

// SessionStatus represents the bookability of a departure.
type SessionStatus string

const (
	SessionOpen      SessionStatus = "open"
	SessionClosed    SessionStatus = "closed"
	SessionFull      SessionStatus = "full"
	SessionCancelled SessionStatus = "cancelled"
)

// IsBookable reports whether new holds may be placed against the session.
func (s SessionStatus) IsBookable() bool {
	return s == SessionOpen
}
