package entity

import "encoding/json"

const (
	DefaultTitle = "Notification"
	DefaultBody  = "No body provided"
	DefaultIcon  = "/icon-192x192.png"
)

// Vendor push services cap a single encrypted record at 4096 bytes.
// The aes128gcm content coding spends 86 bytes on the record header and
// 17 on the padding delimiter plus AEAD tag, which leaves this much room
// for the plaintext payload.
const MaxPayloadBytes = 4096 - 103

// NotificationPayload is the plaintext message carried inside the
// encrypted push body. URL is an optional deep-link opened when the
// rendered notification is clicked.
type NotificationPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
	Badge string `json:"badge,omitempty"`
	URL   string `json:"url,omitempty"`
}

// ApplyDefaults fills the display fields the sender left empty.
func (p *NotificationPayload) ApplyDefaults() {
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if p.Body == "" {
		p.Body = DefaultBody
	}
	if p.Icon == "" {
		p.Icon = DefaultIcon
	}
}

// Encode marshals the payload and enforces the vendor size ceiling.
func (p *NotificationPayload) Encode() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	if len(data) > MaxPayloadBytes {
		return nil, ErrPayloadTooLarge
	}
	return data, nil
}
