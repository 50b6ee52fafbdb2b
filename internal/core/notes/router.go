package notes

// NoteType is the kind tag set by the upstream classifier
type NoteType string

const (
	TypeComment      NoteType = "comment"
	TypeAutomattcher NoteType = "automattcher"
)

// Note is the part of a notification the router looks at.
// Zero ids mean "absent".
type Note struct {
	ID        string
	Type      NoteType
	BlogID    int64
	PostID    int64
	CommentID int64
	Unread    bool
	Subject   string
}

// DetailView names the screen that renders a note
type DetailView int

const (
	GenericDetail DetailView = iota
	CommentDetail
	PostDetail
)

func (v DetailView) String() string {
	switch v {
	case CommentDetail:
		return "comment_detail"
	case PostDetail:
		return "post_detail"
	default:
		return "generic_detail"
	}
}

func (v DetailView) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// IsPostReference reports whether the note points at a post and not at a comment on it
func (n Note) IsPostReference() bool {
	return n.BlogID != 0 && n.PostID != 0 && n.CommentID == 0
}

// Route picks the detail view for n. First match wins:
// comments always get the comment view (comment automattchers are tagged
// comment upstream), automattchers about a post get the post view, and
// everything else falls back to the generic view.
func Route(n Note) DetailView {
	switch n.Type {
	case TypeComment:
		return CommentDetail
	case TypeAutomattcher:
		if n.IsPostReference() {
			return PostDetail
		}
		return GenericDetail
	default:
		return GenericDetail
	}
}
