package types

// Platform names used in natural keys. A resource's (platform, provider id)
// pair is its identity across re-syncs.
const (
	PlatformOCW        = "ocw"
	PlatformMITx       = "mitx"
	PlatformOLL        = "oll"
	PlatformXPro       = "xpro"
	PlatformMITxOnline = "mitxonline"
	PlatformProlearn   = "prolearn"
	PlatformCSAIL      = "csail"
	PlatformSEE        = "see"
	PlatformMITPE      = "mitpe"
	PlatformYouTube    = "youtube"
	PlatformPodcast    = "podcast"
)

// OwnerKind discriminates which resource kind a run belongs to. Runs reference
// their parent through (owner_kind, owner_id) instead of a hard foreign key.
type OwnerKind string

const (
	OwnerCourse   OwnerKind = "course"
	OwnerProgram  OwnerKind = "program"
	OwnerVideo    OwnerKind = "video"
	OwnerPlaylist OwnerKind = "playlist"
)

// Run availability values as normalized from provider payloads.
const (
	AvailabilityCurrent       = "Current"
	AvailabilityUpcoming      = "Upcoming"
	AvailabilityStarting      = "Starting Soon"
	AvailabilityArchived      = "Archived"
	AvailabilityAvailableNow  = "Available Now"
	AvailabilityByArrangement = "By Arrangement"
)

// ContentFile content types.
const (
	ContentTypePage  = "page"
	ContentTypeFile  = "file"
	ContentTypeVideo = "video"
)
