package domain

import "time"

// Multi-part upload bodies exchanged with /chat/upload/*.

type StartUploadRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	ChatID   string `json:"chatId"`
}

type StartUploadResponse struct {
	UploadID string `json:"uploadId"`
	Key      string `json:"key"`
}

type PartURLsRequest struct {
	UploadID string `json:"uploadId"`
	Key      string `json:"key"`
	Parts    []int  `json:"parts"`
}

type PartURL struct {
	PartNumber int    `json:"partNumber"`
	SignedURL  string `json:"signedUrl"`
}

type PartURLsResponse struct {
	URLs []PartURL `json:"urls"`
}

// CompletedPart is the proof that one part reached storage. Field names
// follow the storage API, hence the capitalised JSON keys.
type CompletedPart struct {
	ETag       string `json:"ETag"`
	PartNumber int    `json:"PartNumber"`
}

type CompleteUploadRequest struct {
	UploadID string          `json:"uploadId"`
	Key      string          `json:"key"`
	Parts    []CompletedPart `json:"parts"`
}

type CompleteUploadResponse struct {
	FileURL string `json:"fileUrl"`
}

// SendMessageRequest is the body of POST /chat/message.
type SendMessageRequest struct {
	ChatID      string       `json:"chatId"`
	TempID      string       `json:"tempId"`
	Type        MessageType  `json:"type"`
	Content     string       `json:"content"`
	Files       []Attachment `json:"files"`
	ReplyTo     string       `json:"replyTo,omitempty"`
	ScheduledAt *time.Time   `json:"scheduledAt,omitempty"`
}

// NewSendMessageRequest builds the request for an optimistic message.
func NewSendMessageRequest(m Message) SendMessageRequest {
	req := SendMessageRequest{
		ChatID:      m.Chat,
		TempID:      m.TempID,
		Type:        m.Type,
		Content:     m.Content,
		Files:       m.Files,
		ScheduledAt: m.ScheduledAt,
	}
	if req.Files == nil {
		req.Files = []Attachment{}
	}
	if m.ReplyTo != nil {
		req.ReplyTo = m.ReplyTo.ID
	}
	return req
}
