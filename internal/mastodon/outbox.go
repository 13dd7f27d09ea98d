package mastodon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotOutbox indicates the document is not an ActivityPub ordered
// collection.
var ErrNotOutbox = errors.New("no activity collection type found")

// ErrPagedCollection indicates the document only references further pages.
// Cross-page ordering cannot be verified from a single file, so paged
// containers are rejected instead of partially imported.
var ErrPagedCollection = errors.New("paged activity collections are not supported")

// publicAudience is the well-known "everyone" recipient URI.
const publicAudience = "https://www.w3.org/ns/activitystreams#Public"

// UnknownHandle is the sentinel for actor URIs in shapes we do not
// recognize. A broken handle never fails the rest of the record.
const UnknownHandle = "unknown"

// Tag is one hashtag/mention entry attached to a note.
type Tag struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Href string `json:"href"`
}

// Attachment is one media document attached to a note.
type Attachment struct {
	Type      string `json:"type"`
	MediaType string `json:"mediaType"`
	URL       string `json:"url"`
	Name      string `json:"name"` // alt text
}

// Note is the content object of a Create activity.
type Note struct {
	ID           string       `json:"id"`
	URL          string       `json:"url"`
	Content      string       `json:"content"` // HTML
	Published    string       `json:"published"`
	AttributedTo string       `json:"attributedTo"`
	InReplyTo    string       `json:"inReplyTo"`
	Sensitive    bool         `json:"sensitive"`
	Summary      string       `json:"summary"`
	Tags         []Tag        `json:"tag"`
	Attachments  []Attachment `json:"attachment"`
}

// Activity is one verb-tagged item of the outbox.
type Activity struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Actor     string   `json:"actor"`
	Published string   `json:"published"`
	To        []string `json:"to"`
	CC        []string `json:"cc"`

	// Object holds the embedded note for Create activities, ObjectURI the
	// bare reference for Announce activities.
	Object    *Note  `json:"-"`
	ObjectURI string `json:"-"`
}

// Outbox is the decoded ordered collection.
type Outbox struct {
	Items   []Activity
	Skipped int // items that were neither Create nor Announce
}

type outboxEnvelope struct {
	Type         string            `json:"type"`
	TotalItems   int               `json:"totalItems"`
	OrderedItems []json.RawMessage `json:"orderedItems"`
	First        json.RawMessage   `json:"first"`
}

type activityEnvelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Actor     string          `json:"actor"`
	Published string          `json:"published"`
	To        stringList      `json:"to"`
	CC        stringList      `json:"cc"`
	Object    json.RawMessage `json:"object"`
}

// stringList tolerates both a single string and an array of strings,
// both of which occur in exported recipient lists.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = []string{s}
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// ParseOutbox validates the collection shape and flattens its items.
// Items with an unrecognized verb are counted and skipped; a malformed
// item never aborts the rest of the document.
func ParseOutbox(data []byte) (*Outbox, error) {
	var envelope outboxEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decoding outbox document: %w", err)
	}

	if envelope.Type != "OrderedCollection" && envelope.Type != "OrderedCollectionPage" {
		return nil, ErrNotOutbox
	}
	if len(envelope.OrderedItems) == 0 && len(envelope.First) > 0 {
		return nil, ErrPagedCollection
	}

	outbox := &Outbox{}

	for _, raw := range envelope.OrderedItems {
		var item activityEnvelope
		if err := json.Unmarshal(raw, &item); err != nil {
			outbox.Skipped++
			continue
		}
		if item.Type != "Create" && item.Type != "Announce" {
			outbox.Skipped++
			continue
		}

		activity := Activity{
			ID:        item.ID,
			Type:      item.Type,
			Actor:     item.Actor,
			Published: item.Published,
			To:        item.To,
			CC:        item.CC,
		}

		if len(item.Object) > 0 {
			if item.Object[0] == '"' {
				if err := json.Unmarshal(item.Object, &activity.ObjectURI); err != nil {
					outbox.Skipped++
					continue
				}
			} else {
				var note Note
				if err := json.Unmarshal(item.Object, &note); err != nil {
					outbox.Skipped++
					continue
				}
				activity.Object = &note
			}
		}

		outbox.Items = append(outbox.Items, activity)
	}

	return outbox, nil
}

// AnnounceAuthor resolves the original author of a boost. The activity's
// actor is the booster, not the original poster; the original author is
// carried in the auxiliary recipient list.
func (a Activity) AnnounceAuthor() string {
	for _, recipient := range a.CC {
		if recipient == publicAudience {
			continue
		}
		if strings.HasSuffix(recipient, "/followers") {
			continue
		}
		return recipient
	}
	return ""
}

// HandleFromActorURI compacts a long-form actor URI into user@domain.
// Two URI shapes are recognized: "https://domain/users/name" and
// "https://domain/@name". Anything else degrades to UnknownHandle —
// the rest of the record matters more than this one field.
func HandleFromActorURI(actor string) string {
	u, err := url.Parse(actor)
	if err != nil || u.Host == "" {
		return UnknownHandle
	}

	path := strings.Trim(u.Path, "/")
	if name, ok := strings.CutPrefix(path, "users/"); ok && name != "" && !strings.Contains(name, "/") {
		return name + "@" + u.Host
	}
	if name, ok := strings.CutPrefix(path, "@"); ok && name != "" && !strings.Contains(name, "/") {
		return name + "@" + u.Host
	}
	return UnknownHandle
}
