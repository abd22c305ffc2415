package youtube

import (
	"context"
	"reflect"
	"testing"

	yt "google.golang.org/api/youtube/v3"

	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

func fixtureChannel() RawChannel {
	return RawChannel{
		Channel: &yt.Channel{
			Id:      "UC123",
			Snippet: &yt.ChannelSnippet{Title: "MIT OpenCourseWare"},
		},
		Playlists: []RawPlaylist{
			{
				Playlist: &yt.Playlist{
					Id: "PL456",
					Snippet: &yt.PlaylistSnippet{
						Title:       "18.06 Lectures",
						Description: "Full lecture series user_list",
					},
				},
				Videos: []RawVideo{
					{
						Video: &yt.Video{
							Id: "vid789",
							Snippet: &yt.VideoSnippet{
								Title:       "Lecture 1",
								Description: "The geometry of linear equations",
								Thumbnails: &yt.ThumbnailDetails{
									High:    &yt.Thumbnail{Url: "https://i.ytimg.com/high.jpg"},
									Default: &yt.Thumbnail{Url: "https://i.ytimg.com/default.jpg"},
								},
							},
							ContentDetails: &yt.VideoContentDetails{Duration: "PT49M27S"},
						},
						Transcript: "welcome to 18.06",
					},
				},
			},
		},
	}
}

// A client with no API service behind it must still transform extracted data;
// the transform stage reshapes raws and never reaches for the network.
func TestTransformIsPure(t *testing.T) {
	c := &Client{log: logger.NewNop()}
	raws := []RawChannel{fixtureChannel()}

	first := c.Transform(raws)
	second := c.Transform(raws)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated transforms diverged:\n%#v\n%#v", first, second)
	}

	if len(first) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(first))
	}
	channel := first[0]
	if channel.ChannelID != "UC123" || channel.Platform != types.PlatformYouTube {
		t.Errorf("channel = %+v", channel)
	}
	if len(channel.Playlists) != 1 {
		t.Fatalf("expected 1 playlist, got %d", len(channel.Playlists))
	}
	playlist := channel.Playlists[0]
	if !playlist.HasUserList {
		t.Error("expected user_list tag to mark the playlist")
	}
	if len(playlist.Videos) != 1 {
		t.Fatalf("expected 1 video, got %d", len(playlist.Videos))
	}
	video := playlist.Videos[0]
	if video.VideoID != "vid789" || video.URL != "https://www.youtube.com/watch?v=vid789" {
		t.Errorf("video identity = %q %q", video.VideoID, video.URL)
	}
	if video.Transcript != "welcome to 18.06" {
		t.Errorf("transcript = %q; want the one captured at extract time", video.Transcript)
	}
	if video.Duration != "PT49M27S" {
		t.Errorf("duration = %q", video.Duration)
	}
	if video.ImageSrc != "https://i.ytimg.com/high.jpg" {
		t.Errorf("image src = %q; want the highest-resolution thumbnail", video.ImageSrc)
	}
}

func TestExtractUnconfigured(t *testing.T) {
	c, err := New(context.Background(), Config{}, logger.NewNop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	raws, err := c.Extract(context.Background())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if raws != nil {
		t.Errorf("expected no channels without configuration, got %d", len(raws))
	}
}
