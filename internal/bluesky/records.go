package bluesky

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Record type tags carried inside block payloads.
const (
	typePost    = "app.bsky.feed.post"
	typeRepost  = "app.bsky.feed.repost"
	typeProfile = "app.bsky.actor.profile"
)

// UnknownHandle is the sentinel used when the owner's handle can neither
// be found in the archive nor was supplied by the caller.
const UnknownHandle = "unknown"

// DecodeOptions carries caller-supplied identity overrides. Repository
// archives do not reliably embed the owning account's handle, so the
// caller may pass it explicitly.
type DecodeOptions struct {
	OwnerHandle string
	OwnerDID    string
}

// ImageRef is an image attachment of a post. The archive stores the image
// bytes as separate blobs, so only the alt text survives decoding.
type ImageRef struct {
	Alt string
}

// ExternalRef is an external-link embed of a post.
type ExternalRef struct {
	URI   string
	Title string
}

// FeedRecord is one in-scope record decoded from a repository container.
type FeedRecord struct {
	Kind string // "post" or "repost"

	// RKey is derived from the block's content hash; see derivedRecordKey.
	RKey string
	// CID is the block's own content identifier.
	CID string

	Text        string
	CreatedAt   string
	Langs       []string
	Images      []ImageRef
	External    *ExternalRef
	ReplyParent string

	// Repost linkage. Subject is non-nil when the boosted block was found
	// in the same container.
	SubjectURI string
	SubjectCID string
	Subject    *FeedRecord

	AuthorDID    string
	AuthorHandle string
	AuthorName   string
}

// Repo is the record-level view of one decoded repository archive.
type Repo struct {
	Records []FeedRecord

	DID         string
	Handle      string
	DisplayName string

	Corrupt        int // blocks that failed CBOR decoding
	DroppedReposts int // third-party reposts without resolvable content
}

// decMode decodes nested CBOR maps into map[string]any so payload fields
// can be walked without per-record struct definitions.
var decMode cbor.DecMode

func init() {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("building cbor decode mode: %v", err))
	}
	decMode = dm
}

type decodedBlock struct {
	cid    CID
	typ    string
	fields map[string]any
}

// DecodeRepo enumerates every block of a repository archive, decodes the
// payloads and classifies them into posts, reposts and profile data.
//
// Reposts are resolved against blocks present in the same container.
// When the boosted block is absent, the repost is kept only if the
// subject provably belongs to the archive owner; third-party reposts
// without content are dropped here, not at normalization.
func DecodeRepo(data []byte, opts DecodeOptions) (*Repo, error) {
	container, err := ReadContainer(data)
	if err != nil {
		return nil, err
	}

	repo := &Repo{
		DID:    opts.OwnerDID,
		Handle: opts.OwnerHandle,
	}

	blocks := make([]decodedBlock, 0, len(container.Blocks))
	byCID := make(map[string]*decodedBlock, len(container.Blocks))

	for _, block := range container.Blocks {
		var fields map[string]any
		if err := decMode.Unmarshal(block.Data, &fields); err != nil {
			repo.Corrupt++
			continue
		}

		decoded := decodedBlock{
			cid:    block.CID,
			typ:    mapStr(fields, "$type"),
			fields: fields,
		}
		blocks = append(blocks, decoded)
		byCID[block.CID.String()] = &blocks[len(blocks)-1]

		// The commit object carries the repository owner's DID.
		if repo.DID == "" {
			if did := mapStr(fields, "did"); strings.HasPrefix(did, "did:") {
				repo.DID = did
			}
		}
	}

	// Identity is resolved opportunistically from any profile block.
	for _, b := range blocks {
		if b.typ == typeProfile {
			repo.DisplayName = mapStr(b.fields, "displayName")
			break
		}
	}
	if repo.Handle == "" {
		repo.Handle = UnknownHandle
	}

	for i := range blocks {
		b := &blocks[i]
		switch b.typ {
		case typePost:
			repo.Records = append(repo.Records, repo.postRecord(b))
		case typeRepost:
			rec, ok := repo.repostRecord(b, byCID)
			if !ok {
				repo.DroppedReposts++
				continue
			}
			repo.Records = append(repo.Records, rec)
		}
	}

	return repo, nil
}

func (r *Repo) postRecord(b *decodedBlock) FeedRecord {
	rec := FeedRecord{
		Kind:         "post",
		RKey:         derivedRecordKey(b.cid.Digest),
		CID:          b.cid.String(),
		Text:         mapStr(b.fields, "text"),
		CreatedAt:    mapStr(b.fields, "createdAt"),
		AuthorDID:    r.DID,
		AuthorHandle: r.Handle,
		AuthorName:   r.DisplayName,
	}

	for _, v := range mapList(b.fields, "langs") {
		if lang, ok := v.(string); ok {
			rec.Langs = append(rec.Langs, lang)
		}
	}

	if reply, ok := b.fields["reply"].(map[string]any); ok {
		if parent, ok := reply["parent"].(map[string]any); ok {
			rec.ReplyParent = mapStr(parent, "uri")
		}
	}

	if embed, ok := b.fields["embed"].(map[string]any); ok {
		switch mapStr(embed, "$type") {
		case "app.bsky.embed.images":
			for _, v := range mapList(embed, "images") {
				img, ok := v.(map[string]any)
				if !ok {
					continue
				}
				rec.Images = append(rec.Images, ImageRef{Alt: mapStr(img, "alt")})
			}
		case "app.bsky.embed.external":
			if ext, ok := embed["external"].(map[string]any); ok {
				rec.External = &ExternalRef{
					URI:   mapStr(ext, "uri"),
					Title: mapStr(ext, "title"),
				}
			}
		}
	}

	return rec
}

// repostRecord resolves a repost block against the container. The second
// return value is false when the repost must be dropped.
func (r *Repo) repostRecord(b *decodedBlock, byCID map[string]*decodedBlock) (FeedRecord, bool) {
	rec := FeedRecord{
		Kind:         "repost",
		RKey:         derivedRecordKey(b.cid.Digest),
		CID:          b.cid.String(),
		CreatedAt:    mapStr(b.fields, "createdAt"),
		AuthorDID:    r.DID,
		AuthorHandle: r.Handle,
		AuthorName:   r.DisplayName,
	}

	subject, ok := b.fields["subject"].(map[string]any)
	if !ok {
		return rec, false
	}
	rec.SubjectURI = mapStr(subject, "uri")
	rec.SubjectCID = tagCID(subject["cid"])

	// Direct content-hash match against the container.
	if rec.SubjectCID != "" {
		if target, found := byCID[rec.SubjectCID]; found && target.typ == typePost {
			resolved := r.postRecord(target)
			rec.Subject = &resolved
			return rec, true
		}
	}

	// The original block is absent. Keep the origin reference only when
	// the subject is provably the owner's own content; anything else
	// cannot be disambiguated and is dropped.
	if r.DID != "" && strings.Contains(rec.SubjectURI, r.DID) {
		return rec, true
	}
	return rec, false
}

// tagCID extracts the printable CID from a CBOR tag-42 link value.
func tagCID(v any) string {
	tag, ok := v.(cbor.Tag)
	if !ok || tag.Number != 42 {
		return ""
	}
	content, ok := tag.Content.([]byte)
	if !ok || len(content) < 2 || content[0] != 0 {
		return ""
	}
	cid, _, err := parseCID(content[1:])
	if err != nil {
		return ""
	}
	return cid.String()
}

func mapStr(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func mapList(m map[string]any, key string) []any {
	l, _ := m[key].([]any)
	return l
}
