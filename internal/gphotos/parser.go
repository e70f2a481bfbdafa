package gphotos

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/soralit/gphoto-get/internal/model"
)

// ErrManifestParse is returned when a page is not in a recognized shape.
//
// This is fatal for the whole run: a corrupt page cannot be partially
// trusted, so extraction is all-or-nothing per page, never per record.
var ErrManifestParse = errors.New("album page not in a recognized shape")

// The album page embeds its media listing inside script blocks calling
// AF_initDataCallback with a script-literal (not quite JSON) argument.
// The marker text can shift position between layout changes, so the block
// is located structurally rather than by byte offset.
const callbackMarker = "AF_initDataCallback"

var (
	callbackPattern = regexp.MustCompile(`(?s)AF_initDataCallback\((.*?)\);`)

	// Bare object keys like {data: ...} are quoted to make the payload
	// valid JSON.
	bareKeyPattern = regexp.MustCompile(`([{,])\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*:`)
)

// mediaHostMarker filters the callback entries down to actual media items;
// every media base URL is served from googleusercontent.
const mediaHostMarker = "googleusercontent.com"

// callbackPayload is the decoded shape of one AF_initDataCallback argument.
type callbackPayload struct {
	Data []json.RawMessage `json:"data"`
}

// ExtractPage parses one album page into its media entries and the
// continuation token for the next page ("" on the last page).
//
// The media listing lives at data[1] of the callback payload: each entry is
// a positional array with the raw item id at [0] and a media-info array
// [baseURL, width, height] at [1]. A non-null duration list at entry index
// [2] marks the entry as a video; entries default to photos otherwise.
// The continuation token, when more pages remain, is the string at data[3].
//
// Returns ErrManifestParse when the callback marker is missing or no
// callback block decodes into the expected structure.
func ExtractPage(pageContent string) ([]model.MediaEntry, string, error) {
	if !strings.Contains(pageContent, callbackMarker) {
		return nil, "", fmt.Errorf("%w: callback marker not found", ErrManifestParse)
	}

	matches := callbackPattern.FindAllStringSubmatch(pageContent, -1)
	if len(matches) == 0 {
		return nil, "", fmt.Errorf("%w: callback argument not found", ErrManifestParse)
	}

	// Several callback blocks appear per page; only one carries the media
	// listing. Blocks that decode but hold unrelated data are skipped.
	for _, m := range matches {
		payload, ok := decodeCallback(m[1])
		if !ok || len(payload.Data) < 2 {
			continue
		}

		entries, found := parseEntries(payload.Data[1])
		if !found {
			continue
		}

		return entries, parseToken(payload.Data), nil
	}

	return nil, "", fmt.Errorf("%w: no callback block holds a media listing", ErrManifestParse)
}

// decodeCallback normalizes one callback argument to JSON and decodes it.
func decodeCallback(arg string) (callbackPayload, bool) {
	cleaned := strings.ReplaceAll(arg, "'", `"`)
	cleaned = bareKeyPattern.ReplaceAllString(cleaned, `$1"$2":`)

	var payload callbackPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return callbackPayload{}, false
	}
	return payload, true
}

// parseEntries decodes the media listing at data[1]. The second return
// value reports whether the raw message was a list of media entries at all
// (as opposed to unrelated callback data).
func parseEntries(raw json.RawMessage) ([]model.MediaEntry, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}

	var entries []model.MediaEntry
	found := false
	for _, item := range items {
		entry, ok := parseEntry(item)
		if !ok {
			continue
		}
		found = true
		entries = append(entries, entry)
	}

	// An empty-but-present listing (e.g. final continuation page) still
	// counts as found when the list itself decoded.
	if !found && len(items) > 0 {
		return nil, false
	}
	return entries, true
}

// parseEntry decodes a single positional media entry.
func parseEntry(raw json.RawMessage) (model.MediaEntry, bool) {
	var fields []json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) < 2 {
		return model.MediaEntry{}, false
	}

	var rawID string
	if err := json.Unmarshal(fields[0], &rawID); err != nil || rawID == "" {
		return model.MediaEntry{}, false
	}

	var info []json.RawMessage
	if err := json.Unmarshal(fields[1], &info); err != nil || len(info) == 0 {
		return model.MediaEntry{}, false
	}

	var baseURL string
	if err := json.Unmarshal(info[0], &baseURL); err != nil {
		return model.MediaEntry{}, false
	}
	if !strings.Contains(baseURL, mediaHostMarker) {
		return model.MediaEntry{}, false
	}

	entry := model.MediaEntry{
		ID:      CleanID(rawID),
		BaseURL: baseURL,
		Kind:    model.KindPhoto,
	}

	if len(info) > 1 {
		json.Unmarshal(info[1], &entry.Width)
	}
	if len(info) > 2 {
		json.Unmarshal(info[2], &entry.Height)
	}

	if len(fields) > 2 && isVideoMarker(fields[2]) {
		entry.Kind = model.KindVideo
	}

	return entry, true
}

// isVideoMarker reports whether the entry field at index 2 is a non-empty
// duration list, the structural hint distinguishing videos from photos.
func isVideoMarker(raw json.RawMessage) bool {
	var durations []float64
	if err := json.Unmarshal(raw, &durations); err != nil {
		return false
	}
	return len(durations) > 0 && durations[0] > 0
}

// parseToken returns the continuation token at data[3], or "" when the
// page is the last one.
func parseToken(data []json.RawMessage) string {
	if len(data) < 4 {
		return ""
	}
	var token string
	if err := json.Unmarshal(data[3], &token); err != nil {
		return ""
	}
	return token
}

// CleanID derives the stable item id from the raw payload id: the raw
// value carries a 6-character prefix that varies between page loads, so
// the stem is the 8 characters that follow it.
func CleanID(rawID string) string {
	if len(rawID) < 6 {
		return rawID
	}
	end := 14
	if len(rawID) < end {
		end = len(rawID)
	}
	return rawID[6:end]
}
