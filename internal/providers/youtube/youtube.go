// Package youtube ingests configured YouTube channels through the Data API:
// channels, their playlists, and the videos on each playlist. Caption tracks
// ride along as transcripts when the API exposes them.
package youtube

import (
	"context"
	"io"
	"strings"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/openlearn/catalog-backend/internal/canonical"
	"github.com/openlearn/catalog-backend/internal/platform/envutil"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

const (
	offeredBy   = "OCW"
	pageSize    = 50
	userListTag = "user_list"
)

type Config struct {
	APIKey     string
	ChannelIDs []string
}

func ConfigFromEnv() Config {
	cfg := Config{APIKey: envutil.Str("YOUTUBE_DEVELOPER_KEY", "")}
	for _, id := range strings.Split(envutil.Str("YOUTUBE_CHANNEL_IDS", ""), ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			cfg.ChannelIDs = append(cfg.ChannelIDs, id)
		}
	}
	return cfg
}

func (c Config) Configured() bool {
	return c.APIKey != "" && len(c.ChannelIDs) > 0
}

type RawChannel struct {
	Channel   *yt.Channel
	Playlists []RawPlaylist
}

type RawPlaylist struct {
	Playlist *yt.Playlist
	Videos   []RawVideo
}

// RawVideo pairs the API video object with its caption transcript so that
// everything remote is in hand before the transform stage runs.
type RawVideo struct {
	Video      *yt.Video
	Transcript string
}

type Client struct {
	cfg Config
	log *logger.Logger
	svc *yt.Service
}

func New(ctx context.Context, cfg Config, baseLog *logger.Logger) (*Client, error) {
	c := &Client{cfg: cfg, log: baseLog.With("provider", types.PlatformYouTube)}
	if !cfg.Configured() {
		return c, nil
	}
	svc, err := yt.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, err
	}
	c.svc = svc
	return c, nil
}

// Extract walks every configured channel. A channel that fails is logged and
// skipped so one bad id does not lose the rest.
func (c *Client) Extract(ctx context.Context) ([]RawChannel, error) {
	if c.svc == nil {
		c.log.Info("api key or channels not configured; skipping extract")
		return nil, nil
	}
	var channels []RawChannel
	for _, channelID := range c.cfg.ChannelIDs {
		raw, err := c.extractChannel(ctx, channelID)
		if err != nil {
			c.log.Error("failed to extract channel", "channel_id", channelID, "error", err)
			continue
		}
		channels = append(channels, raw)
	}
	return channels, nil
}

func (c *Client) extractChannel(ctx context.Context, channelID string) (RawChannel, error) {
	resp, err := c.svc.Channels.List([]string{"snippet"}).Id(channelID).Context(ctx).Do()
	if err != nil {
		return RawChannel{}, err
	}
	if len(resp.Items) == 0 {
		return RawChannel{}, errNotFound(channelID)
	}
	raw := RawChannel{Channel: resp.Items[0]}

	pageToken := ""
	for {
		playlists, err := c.svc.Playlists.List([]string{"snippet"}).
			ChannelId(channelID).MaxResults(pageSize).PageToken(pageToken).Context(ctx).Do()
		if err != nil {
			return RawChannel{}, err
		}
		for _, playlist := range playlists.Items {
			videos, err := c.extractPlaylistVideos(ctx, playlist.Id)
			if err != nil {
				c.log.Error("failed to extract playlist", "playlist_id", playlist.Id, "error", err)
				continue
			}
			raw.Playlists = append(raw.Playlists, RawPlaylist{Playlist: playlist, Videos: videos})
		}
		pageToken = playlists.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return raw, nil
}

func (c *Client) extractPlaylistVideos(ctx context.Context, playlistID string) ([]RawVideo, error) {
	var ids []string
	pageToken := ""
	for {
		items, err := c.svc.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).MaxResults(pageSize).PageToken(pageToken).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		for _, item := range items.Items {
			ids = append(ids, item.ContentDetails.VideoId)
		}
		pageToken = items.NextPageToken
		if pageToken == "" {
			break
		}
	}

	var videos []RawVideo
	for start := 0; start < len(ids); start += pageSize {
		end := start + pageSize
		if end > len(ids) {
			end = len(ids)
		}
		resp, err := c.svc.Videos.List([]string{"snippet", "contentDetails"}).
			Id(ids[start:end]...).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		for _, video := range resp.Items {
			videos = append(videos, RawVideo{
				Video:      video,
				Transcript: c.fetchTranscript(ctx, video.Id),
			})
		}
	}
	return videos, nil
}

// fetchTranscript downloads the first caption track of a video. Caption
// downloads need extra API grants, so failures are expected and surface as an
// empty transcript.
func (c *Client) fetchTranscript(ctx context.Context, videoID string) string {
	if c.svc == nil {
		return ""
	}
	tracks, err := c.svc.Captions.List([]string{"id"}, videoID).Context(ctx).Do()
	if err != nil || len(tracks.Items) == 0 {
		return ""
	}
	resp, err := c.svc.Captions.Download(tracks.Items[0].Id).Context(ctx).Download()
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return string(body)
}

// Transform reshapes extracted channels into canonical form. It touches
// nothing remote; transcripts were already captured during extraction.
func (c *Client) Transform(raws []RawChannel) []canonical.VideoChannel {
	channels := make([]canonical.VideoChannel, 0, len(raws))
	for _, raw := range raws {
		channel := canonical.VideoChannel{
			ChannelID: raw.Channel.Id,
			Platform:  types.PlatformYouTube,
			Title:     raw.Channel.Snippet.Title,
			Published: true,
			OfferedBy: []canonical.OfferedBy{{Name: offeredBy}},
		}
		for _, rawPlaylist := range raw.Playlists {
			playlist := canonical.Playlist{
				PlaylistID:       rawPlaylist.Playlist.Id,
				Platform:         types.PlatformYouTube,
				Title:            rawPlaylist.Playlist.Snippet.Title,
				ShortDescription: rawPlaylist.Playlist.Snippet.Description,
				URL:              "https://www.youtube.com/playlist?list=" + rawPlaylist.Playlist.Id,
				Published:        true,
				HasUserList:      strings.Contains(rawPlaylist.Playlist.Snippet.Description, userListTag),
				OfferedBy:        channel.OfferedBy,
			}
			for _, rawVideo := range rawPlaylist.Videos {
				video := canonical.Video{
					VideoID:         rawVideo.Video.Id,
					Platform:        types.PlatformYouTube,
					Title:           rawVideo.Video.Snippet.Title,
					FullDescription: rawVideo.Video.Snippet.Description,
					URL:             "https://www.youtube.com/watch?v=" + rawVideo.Video.Id,
					Published:       true,
					Transcript:      rawVideo.Transcript,
					OfferedBy:       channel.OfferedBy,
				}
				if rawVideo.Video.ContentDetails != nil {
					video.Duration = rawVideo.Video.ContentDetails.Duration
				}
				if thumb := bestThumbnail(rawVideo.Video.Snippet.Thumbnails); thumb != "" {
					video.ImageSrc = thumb
				}
				playlist.Videos = append(playlist.Videos, video)
			}
			channel.Playlists = append(channel.Playlists, playlist)
		}
		channels = append(channels, channel)
	}
	return channels
}

func bestThumbnail(details *yt.ThumbnailDetails) string {
	if details == nil {
		return ""
	}
	for _, t := range []*yt.Thumbnail{details.Maxres, details.High, details.Medium, details.Default} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}
	return ""
}

type errNotFound string

func (e errNotFound) Error() string { return "youtube channel not found: " + string(e) }
