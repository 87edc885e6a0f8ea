package transport

// CommentRequest adds a comment to a project.
type CommentRequest struct {
	Text       string `json:"text"`
	AuthorName string `json:"author_name"`
}

// NotificationRequest raises a notification for a user.
type NotificationRequest struct {
	UserID  string         `json:"user_id"`
	Type    string         `json:"type"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Link    string         `json:"link"`
	Data    map[string]any `json:"data"`
}

// ListMeta accompanies collection responses.
type ListMeta struct {
	Count  int    `json:"count"`
	Unread *int   `json:"unread,omitempty"`
	Source string `json:"source,omitempty"`
}
