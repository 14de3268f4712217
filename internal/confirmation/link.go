// Package confirmation builds the WhatsApp deep link a customer uses to
// confirm a booking by hand.
package confirmation

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/robertarktes/party-bookings/internal/domain"
)

const DefaultRegion = "AR"

// Message renders the confirmation text. The comments line is left out when
// there are no comments.
func Message(b domain.Booking) string {
	var sb strings.Builder
	sb.WriteString("Hola! Quiero confirmar mi reserva:\n\n")
	sb.WriteString("📅 Fecha: " + b.Date + "\n")
	sb.WriteString("⏰ Horario: " + b.Time + "\n")
	sb.WriteString("👦 Niños: " + strconv.Itoa(b.KidsCount) + "\n")
	sb.WriteString("👨 Adultos: " + strconv.Itoa(b.AdultsCount))
	if c := strings.TrimSpace(b.Comments); c != "" {
		sb.WriteString("\n💬 Comentarios: " + c)
	}
	return sb.String()
}

// Link returns https://wa.me/<digits>?text=<message>.
func Link(b domain.Booking, phone string) string {
	return "https://wa.me/" + NormalizePhone(phone) + "?text=" + encodeURIComponent(Message(b))
}

// NormalizePhone returns the phone in international form as bare digits.
// Numbers that do not parse are reduced to their digits.
func NormalizePhone(phone string) string {
	digits := onlyDigits(phone)
	if digits == "" {
		return ""
	}
	if num, err := phonenumbers.Parse("+"+digits, ""); err == nil && phonenumbers.IsValidNumber(num) {
		return onlyDigits(phonenumbers.Format(num, phonenumbers.E164))
	}
	if num, err := phonenumbers.Parse(phone, DefaultRegion); err == nil && phonenumbers.IsValidNumber(num) {
		return onlyDigits(phonenumbers.Format(num, phonenumbers.E164))
	}
	return digits
}

func onlyDigits(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// encodeURIComponent percent-encodes every UTF-8 byte outside
// A-Z a-z 0-9 -_.!~*'() the way the JavaScript function does.
func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0x0f])
	}
	return sb.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
