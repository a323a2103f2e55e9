package jellyseerr

import (
	"strconv"
	"time"
)

// MediaStatus is the availability state Jellyseerr tracks for a media item
type MediaStatus int

const (
	// MediaStatusUnknown means the media is known but nothing is tracked for it
	MediaStatusUnknown MediaStatus = iota + 1
	// MediaStatusPending means a request is waiting for approval
	MediaStatusPending
	// MediaStatusProcessing means the request was approved and is being downloaded
	MediaStatusProcessing
	// MediaStatusPartiallyAvailable means some of the media is available
	MediaStatusPartiallyAvailable
	// MediaStatusAvailable means the media is available on the media server
	MediaStatusAvailable
	// MediaStatusBlacklisted means the media was blacklisted by an admin
	MediaStatusBlacklisted
	// MediaStatusDeleted means the media was removed from the media server
	MediaStatusDeleted
)

// String returns the string representation of a MediaStatus
func (s MediaStatus) String() string {
	switch s {
	case MediaStatusUnknown:
		return "UNKNOWN"
	case MediaStatusPending:
		return "PENDING"
	case MediaStatusProcessing:
		return "PROCESSING"
	case MediaStatusPartiallyAvailable:
		return "PARTIALLY_AVAILABLE"
	case MediaStatusAvailable:
		return "AVAILABLE"
	case MediaStatusBlacklisted:
		return "BLACKLISTED"
	case MediaStatusDeleted:
		return "DELETED"
	default:
		return "NONE"
	}
}

// RequestStatus represents the status of a media request
type RequestStatus int

const (
	// RequestStatusPending indicates a pending request
	RequestStatusPending RequestStatus = iota + 1
	// RequestStatusApproved indicates an approved request
	RequestStatusApproved
	// RequestStatusDeclined indicates a declined request
	RequestStatusDeclined
	// RequestStatusFailed indicates the request could not be sent to the download service
	RequestStatusFailed
	// RequestStatusCompleted indicates the requested media became available
	RequestStatusCompleted
)

// String returns the string representation of a RequestStatus
func (rs RequestStatus) String() string {
	switch rs {
	case RequestStatusPending:
		return "PENDING"
	case RequestStatusApproved:
		return "APPROVED"
	case RequestStatusDeclined:
		return "DECLINED"
	case RequestStatusFailed:
		return "FAILED"
	case RequestStatusCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// MediaType represents the type of media
type MediaType string

const (
	// MediaTypeMovie represents a movie
	MediaTypeMovie MediaType = "movie"
	// MediaTypeTV represents a TV show
	MediaTypeTV MediaType = "tv"
	// MediaTypePerson represents a person search result
	MediaTypePerson MediaType = "person"
)

// IsMovie checks if the media type is a movie
func (mt MediaType) IsMovie() bool {
	return mt == MediaTypeMovie
}

// User represents a Jellyseerr user
type User struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username,omitempty"`
	JellyfinName string `json:"jellyfinUsername,omitempty"`
	PlexUsername string `json:"plexUsername,omitempty"`
	DisplayName  string `json:"displayName"`
	Permissions  int    `json:"permissions"`
}

// GetDisplayName returns the best available display name for the user
func (u *User) GetDisplayName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Username != "" {
		return u.Username
	}
	if u.JellyfinName != "" {
		return u.JellyfinName
	}
	if u.PlexUsername != "" {
		return u.PlexUsername
	}
	return u.Email
}

// MediaInfo is Jellyseerr's own record of a media item
type MediaInfo struct {
	ID        int            `json:"id"`
	TmdbID    int            `json:"tmdbId"`
	ImdbID    string         `json:"imdbId,omitempty"`
	Status    MediaStatus    `json:"status"`
	Status4k  MediaStatus    `json:"status4k"`
	MediaType MediaType      `json:"mediaType"`
	Requests  []MediaRequest `json:"requests,omitempty"`
}

// MediaRequest represents a media request in Jellyseerr
type MediaRequest struct {
	ID            int           `json:"id"`
	Status        RequestStatus `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	Type          MediaType     `json:"type"`
	Is4k          bool          `json:"is4k"`
	IsAutoRequest bool          `json:"isAutoRequest"`
	RequestedBy   *User         `json:"requestedBy,omitempty"`
	ModifiedBy    *User         `json:"modifiedBy,omitempty"`
}

// SearchItem is a single entry of a search response
type SearchItem struct {
	ID            int        `json:"id"`
	MediaType     MediaType  `json:"mediaType"`
	Title         string     `json:"title"`
	OriginalTitle string     `json:"originalTitle"`
	ReleaseDate   string     `json:"releaseDate"`
	MediaInfo     *MediaInfo `json:"mediaInfo,omitempty"`
}

// Year returns the release year, or 0 if unknown
func (si *SearchItem) Year() int {
	if len(si.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(si.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// SearchResponse represents the paginated response from the search endpoint
type SearchResponse struct {
	Page         int          `json:"page"`
	TotalPages   int          `json:"totalPages"`
	TotalResults int          `json:"totalResults"`
	Results      []SearchItem `json:"results"`
}

// Availability is how much of a title is available on the media server
type Availability int

const (
	AvailabilityAbsent Availability = iota
	AvailabilityPartial
	AvailabilityAvailable
)

func (a Availability) String() string {
	switch a {
	case AvailabilityPartial:
		return "partially available"
	case AvailabilityAvailable:
		return "available"
	default:
		return "absent"
	}
}

// ExistingRequest summarises the requests already made for a title
type ExistingRequest int

const (
	RequestNone ExistingRequest = iota
	RequestPending
	RequestApproved
	RequestDeclined
	// RequestBlocked means an admin blacklisted the title
	RequestBlocked
)

func (r ExistingRequest) String() string {
	switch r {
	case RequestPending:
		return "pending"
	case RequestApproved:
		return "approved"
	case RequestDeclined:
		return "declined"
	case RequestBlocked:
		return "blacklisted"
	default:
		return "none"
	}
}

// Status is the catalog state of a title for one quality tier
type Status struct {
	Availability Availability
	Request      ExistingRequest
}

// Satisfied reports whether nothing needs to be requested
func (s Status) Satisfied() bool {
	return s.Availability != AvailabilityAbsent || s.Request != RequestNone
}

// SearchResult is the resolved catalog entry for a listing movie
type SearchResult struct {
	TMDBID   int // id used when requesting
	MediaID  int // Jellyseerr media row, 0 if never tracked
	Title    string
	Year     int
	Standard Status
	UHD      Status
}

// StatusFor returns the state relevant to the requested quality tier
func (sr *SearchResult) StatusFor(is4k bool) Status {
	if is4k {
		return sr.UHD
	}
	return sr.Standard
}

// RequestOptions are the service-specific flags sent with a request
type RequestOptions struct {
	Is4K        bool
	AutoApprove bool
	ServerID    *int
	ProfileID   *int
	RootFolder  string
	UserID      *int
}

// RequestOutcome describes what happened when a request was submitted
type RequestOutcome struct {
	RequestID int
	Status    RequestStatus
	// Duplicate is set when the service already had a request for the media
	Duplicate bool
	// Approved is set when the request was approved, by the service or by auto-approve
	Approved bool
	Message  string
}

// createRequestBody is the payload of POST /request
type createRequestBody struct {
	MediaType  MediaType `json:"mediaType"`
	MediaID    int       `json:"mediaId"`
	Is4k       bool      `json:"is4k"`
	ServerID   *int      `json:"serverId,omitempty"`
	ProfileID  *int      `json:"profileId,omitempty"`
	RootFolder string    `json:"rootFolder,omitempty"`
	UserID     *int      `json:"userId,omitempty"`
}
