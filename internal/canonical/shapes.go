// Package canonical defines the provider-agnostic shapes every extractor or
// transformer must produce before handing data to the loaders. A shape carries
// the natural key of the entity plus nested relation lists; the loaders own
// all persistence concerns.
package canonical

import (
	"encoding/json"
	"time"
)

type Topic struct {
	Name string `json:"name"`
}

type OfferedBy struct {
	Name string `json:"name"`
}

type Price struct {
	Price           float64    `json:"price"`
	Mode            string     `json:"mode"`
	UpgradeDeadline *time.Time `json:"upgrade_deadline,omitempty"`
}

type Instructor struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
}

type Run struct {
	RunID            string          `json:"run_id"`
	Platform         string          `json:"platform"`
	Title            string          `json:"title"`
	ShortDescription string          `json:"short_description"`
	FullDescription  string          `json:"full_description"`
	ImageSrc         string          `json:"image_src"`
	URL              string          `json:"url"`
	Slug             string          `json:"slug"`
	Language         string          `json:"language"`
	Level            string          `json:"level"`
	Semester         string          `json:"semester"`
	Year             *int            `json:"year,omitempty"`
	Availability     string          `json:"availability"`
	StartDate        *time.Time      `json:"start_date,omitempty"`
	EndDate          *time.Time      `json:"end_date,omitempty"`
	EnrollmentStart  *time.Time      `json:"enrollment_start,omitempty"`
	EnrollmentEnd    *time.Time      `json:"enrollment_end,omitempty"`
	LastModified     *time.Time      `json:"last_modified,omitempty"`
	Published        bool            `json:"published"`
	Topics           []Topic         `json:"topics,omitempty"`
	Prices           []Price         `json:"prices,omitempty"`
	Instructors      []Instructor    `json:"instructors,omitempty"`
	OfferedBy        []OfferedBy     `json:"offered_by,omitempty"`
	RawJSON          json.RawMessage `json:"raw_json,omitempty"`
}

type Course struct {
	CourseID         string          `json:"course_id"`
	Platform         string          `json:"platform"`
	Title            string          `json:"title"`
	ShortDescription string          `json:"short_description"`
	FullDescription  string          `json:"full_description"`
	ImageSrc         string          `json:"image_src"`
	URL              string          `json:"url"`
	Language         string          `json:"language"`
	Department       string          `json:"department"`
	ProgramType      string          `json:"program_type"`
	ProgramName      string          `json:"program_name"`
	Location         string          `json:"location"`
	Published        bool            `json:"published"`
	Topics           []Topic         `json:"topics,omitempty"`
	OfferedBy        []OfferedBy     `json:"offered_by,omitempty"`
	Runs             []Run           `json:"runs,omitempty"`
	RawJSON          json.RawMessage `json:"raw_json,omitempty"`
}

type Program struct {
	ProgramID        string      `json:"program_id"`
	Platform         string      `json:"platform"`
	Title            string      `json:"title"`
	ShortDescription string      `json:"short_description"`
	ImageSrc         string      `json:"image_src"`
	URL              string      `json:"url"`
	Published        bool        `json:"published"`
	Topics           []Topic     `json:"topics,omitempty"`
	OfferedBy        []OfferedBy `json:"offered_by,omitempty"`
	Runs             []Run       `json:"runs,omitempty"`
	// Courses is the ordered child list; membership rows not present here are
	// pruned on load.
	Courses []Course        `json:"courses,omitempty"`
	RawJSON json.RawMessage `json:"raw_json,omitempty"`
}

type Video struct {
	VideoID          string          `json:"video_id"`
	Platform         string          `json:"platform"`
	Title            string          `json:"title"`
	ShortDescription string          `json:"short_description"`
	FullDescription  string          `json:"full_description"`
	ImageSrc         string          `json:"image_src"`
	URL              string          `json:"url"`
	Duration         string          `json:"duration"`
	Transcript       string          `json:"transcript"`
	Published        bool            `json:"published"`
	Topics           []Topic         `json:"topics,omitempty"`
	OfferedBy        []OfferedBy     `json:"offered_by,omitempty"`
	RawJSON          json.RawMessage `json:"raw_json,omitempty"`
}

type Playlist struct {
	PlaylistID       string      `json:"playlist_id"`
	Platform         string      `json:"platform"`
	Title            string      `json:"title"`
	ShortDescription string      `json:"short_description"`
	ImageSrc         string      `json:"image_src"`
	URL              string      `json:"url"`
	Published        bool        `json:"published"`
	HasUserList      bool        `json:"has_user_list"`
	Topics           []Topic     `json:"topics,omitempty"`
	OfferedBy        []OfferedBy `json:"offered_by,omitempty"`
	// Videos is the ordered child list, same pruning contract as Program.Courses.
	Videos []Video `json:"videos,omitempty"`
}

type VideoChannel struct {
	ChannelID        string      `json:"channel_id"`
	Platform         string      `json:"platform"`
	Title            string      `json:"title"`
	ShortDescription string      `json:"short_description"`
	Published        bool        `json:"published"`
	Topics           []Topic     `json:"topics,omitempty"`
	OfferedBy        []OfferedBy `json:"offered_by,omitempty"`
	Playlists        []Playlist  `json:"playlists,omitempty"`
}

type Podcast struct {
	PodcastID        string           `json:"podcast_id"`
	Platform         string           `json:"platform"`
	Title            string           `json:"title"`
	ShortDescription string           `json:"short_description"`
	FullDescription  string           `json:"full_description"`
	ImageSrc         string           `json:"image_src"`
	URL              string           `json:"url"`
	RSSURL           string           `json:"rss_url"`
	Published        bool             `json:"published"`
	Topics           []Topic          `json:"topics,omitempty"`
	OfferedBy        []OfferedBy      `json:"offered_by,omitempty"`
	Episodes         []PodcastEpisode `json:"episodes,omitempty"`
	RawJSON          json.RawMessage  `json:"raw_json,omitempty"`
}

type PodcastEpisode struct {
	EpisodeID        string          `json:"episode_id"`
	Platform         string          `json:"platform"`
	Title            string          `json:"title"`
	ShortDescription string          `json:"short_description"`
	ImageSrc         string          `json:"image_src"`
	URL              string          `json:"url"`
	EpisodeLink      string          `json:"episode_link"`
	Duration         string          `json:"duration"`
	LastModified     *time.Time      `json:"last_modified,omitempty"`
	Published        bool            `json:"published"`
	Topics           []Topic         `json:"topics,omitempty"`
	OfferedBy        []OfferedBy     `json:"offered_by,omitempty"`
	RawJSON          json.RawMessage `json:"raw_json,omitempty"`
}

// ContentFile is the canonical shape of one extracted course artifact.
type ContentFile struct {
	Key             string     `json:"key"`
	UID             string     `json:"uid"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	ContentType     string     `json:"content_type"`
	FileType        string     `json:"file_type"`
	Section         string     `json:"section"`
	URL             string     `json:"url"`
	ShortURL        string     `json:"short_url"`
	Content         string     `json:"content"`
	ContentTitle    string     `json:"content_title"`
	ContentAuthor   string     `json:"content_author"`
	ContentLanguage string     `json:"content_language"`
	LastModified    *time.Time `json:"last_modified,omitempty"`
	Published       bool       `json:"published"`
}
