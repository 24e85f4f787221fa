package whatsapp

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/skip2/go-qrcode"
)

const (
	qrImageSize = 256
	qrValidity  = 5 * time.Minute
)

// QRData is a pairing code for connecting a WhatsApp instance.
type QRData struct {
	QRCode      string    `json:"qr_code"`
	InstanceID  string    `json:"instance_id"`
	PhoneNumber *string   `json:"phone_number"`
	ExpiresAt   time.Time `json:"expires_at"`
	Status      string    `json:"status"`
}

// GeneratePairingQR renders the instance connect URL as a PNG data URI.
func (c *Client) GeneratePairingQR(instanceID string, phoneNumber string) (QRData, error) {
	content := fmt.Sprintf("%s/instance/connect/%s", c.baseURL, instanceID)

	png, err := qrcode.Encode(content, qrcode.Medium, qrImageSize)
	if err != nil {
		return QRData{}, fmt.Errorf("encode pairing qr: %w", err)
	}

	data := QRData{
		QRCode:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		InstanceID: instanceID,
		ExpiresAt:  time.Now().Add(qrValidity),
		Status:     "pending",
	}
	if phoneNumber != "" {
		data.PhoneNumber = &phoneNumber
	}
	return data, nil
}
