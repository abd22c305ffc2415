// Package contentfiles turns a parsed course document into content-file
// records: one per page, file, and embedded media item. Text-bearing files go
// through the extraction service, with results cached in the bucket under
// extracts/<key>.json so repeat syncs skip the expensive call.
package contentfiles

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/openlearn/catalog-backend/internal/canonical"
	"github.com/openlearn/catalog-backend/internal/platform/gcp"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/providers/ocw"
	"github.com/openlearn/catalog-backend/internal/types"
)

// textExtensions is the allow-list of extensions worth sending to the
// extraction service.
var textExtensions = map[string]bool{
	".pdf": true, ".htm": true, ".html": true, ".txt": true,
	".doc": true, ".docx": true, ".ppt": true, ".pptx": true,
	".xls": true, ".xlsx": true, ".json": true, ".rtf": true,
	".srt": true, ".vtt": true,
}

const extractsPrefix = "extracts/"

type Pipeline struct {
	log      *logger.Logger
	bucket   gcp.BucketService
	document gcp.Document
}

func New(bucket gcp.BucketService, document gcp.Document, log *logger.Logger) *Pipeline {
	return &Pipeline{
		log:      log.With("component", "contentfiles"),
		bucket:   bucket,
		document: document,
	}
}

// Build produces the content-file list for one course. modTimes maps storage
// keys to their remote modification times, as discovered by the sync listing;
// force bypasses the extraction cache. A bad artifact is logged and excluded,
// never fatal.
func (p *Pipeline) Build(ctx context.Context, courseID string, doc *ocw.CourseDoc, modTimes map[string]time.Time, force bool) []canonical.ContentFile {
	var out []canonical.ContentFile

	for _, page := range doc.Pages {
		if page.UID == "" {
			continue
		}
		out = append(out, canonical.ContentFile{
			Key:          page.UID,
			UID:          page.UID,
			Title:        page.Title,
			ContentType:  types.ContentTypePage,
			Section:      page.Type,
			URL:          page.URL,
			ShortURL:     page.ShortURL,
			Content:      stripHTML(page.Text),
			ContentTitle: page.Title,
			Published:    true,
		})
	}

	for _, file := range doc.Files {
		record, ok := p.buildFile(ctx, courseID, file, modTimes, force)
		if !ok {
			continue
		}
		out = append(out, record)
	}

	for _, media := range doc.EmbeddedMedia {
		if media.UID == "" {
			continue
		}
		out = append(out, canonical.ContentFile{
			Key:         media.UID,
			UID:         media.UID,
			Title:       media.Title,
			ContentType: types.ContentTypeVideo,
			URL:         media.MediaLocation,
			Published:   true,
		})
	}

	return out
}

func (p *Pipeline) buildFile(ctx context.Context, courseID string, file ocw.File, modTimes map[string]time.Time, force bool) (canonical.ContentFile, bool) {
	if file.UID == "" && file.FileLocation == "" {
		return canonical.ContentFile{}, false
	}
	key := storageKey(file.FileLocation)
	if key == "" {
		key = file.UID
	}

	record := canonical.ContentFile{
		Key:         key,
		UID:         file.UID,
		Title:       file.Title,
		Description: file.Description,
		ContentType: types.ContentTypeFile,
		FileType:    file.FileType,
		URL:         bestURL(p.bucket, file.FileLocation, key),
		Published:   true,
	}

	ext := strings.ToLower(path.Ext(key))
	if !textExtensions[ext] || p.document == nil {
		return record, true
	}

	result, err := p.extractWithCache(ctx, key, modTimes[key], force)
	if err != nil {
		p.log.Error("content extraction failed",
			"course_id", courseID, "artifact", key, "error", err)
		return canonical.ContentFile{}, false
	}
	record.Content = result.Content
	record.ContentTitle = result.Metadata["title"]
	record.ContentAuthor = result.Metadata["author"]
	record.ContentLanguage = result.Metadata["language"]
	return record, true
}

// extractWithCache reuses a cached extraction unless the artifact changed
// since it was written or the caller forces a refresh.
func (p *Pipeline) extractWithCache(ctx context.Context, key string, artifactMod time.Time, force bool) (*gcp.ExtractResult, error) {
	cacheKey := extractsPrefix + key + ".json"

	if !force {
		cached, err := p.bucket.Exists(ctx, cacheKey)
		if err != nil {
			return nil, err
		}
		if cached != nil && !artifactMod.After(cached.LastModified) {
			var result gcp.ExtractResult
			if err := p.bucket.ReadJSON(ctx, cacheKey, &result); err == nil {
				return &result, nil
			}
			// Unreadable cache entry falls through to a fresh extraction.
			p.log.Warn("unreadable extraction cache entry; re-extracting", "key", cacheKey)
		}
	}

	r, err := p.bucket.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return nil, err
	}

	result, err := p.document.Extract(ctx, data, mime.TypeByExtension(path.Ext(key)))
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	if err := p.bucket.Upload(ctx, cacheKey, bytes.NewReader(encoded)); err != nil {
		p.log.Warn("failed to write extraction cache", "key", cacheKey, "error", err)
	}
	return result, nil
}

// storageKey reduces a file location to a bucket key. External URLs keep only
// their path; plain keys pass through.
func storageKey(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		if i := strings.Index(location, "//"); i >= 0 {
			rest := location[i+2:]
			if j := strings.Index(rest, "/"); j >= 0 {
				return strings.TrimLeft(rest[j+1:], "/")
			}
		}
		return ""
	}
	return strings.TrimLeft(location, "/")
}

// bestURL prefers the explicit external location and falls back to the
// computed storage URL.
func bestURL(bucket gcp.BucketService, location, key string) string {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location
	}
	if key == "" {
		return ""
	}
	return bucket.PublicURL(key)
}

var htmlTag = strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">")

// stripHTML flattens page markup to indexable text. Pages carry simple CMS
// markup, not arbitrary HTML, so a tag scan is enough.
func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(htmlTag.Replace(b.String())), " ")
}
