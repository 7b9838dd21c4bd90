// Package pix builds static Pix "copia e cola" payloads (BR Code, the EMV
// MPM profile adopted by Banco Central do Brasil).
package pix

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	gui = "br.gov.bcb.pix"

	merchantCategoryOther = "0000"
	currencyBRL           = "986"
	countryBR             = "BR"
)

// NewTxID returns a transaction id valid for the txid field: alphanumeric,
// at most 25 characters.
func NewTxID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return raw[:25]
}

// BuildBRCode assembles the copia-e-cola payload for a charge. Amount is in
// centavos; the payload carries it with two decimal places.
func BuildBRCode(key, merchantName, merchantCity string, amountCentavos int64, txid string) string {
	account := tlv("00", gui) + tlv("01", key)

	var b strings.Builder
	b.WriteString(tlv("00", "01"))
	b.WriteString(tlv("26", account))
	b.WriteString(tlv("52", merchantCategoryOther))
	b.WriteString(tlv("53", currencyBRL))
	b.WriteString(tlv("54", fmt.Sprintf("%d.%02d", amountCentavos/100, amountCentavos%100)))
	b.WriteString(tlv("58", countryBR))
	b.WriteString(tlv("59", truncate(merchantName, 25)))
	b.WriteString(tlv("60", truncate(merchantCity, 15)))
	b.WriteString(tlv("62", tlv("05", txid)))
	b.WriteString("6304")

	payload := b.String()
	return payload + crc16(payload)
}

func tlv(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// crc16 is CRC-16/CCITT-FALSE over the payload including the "6304" prefix of
// the checksum field itself, as the EMV spec requires.
func crc16(payload string) string {
	crc := uint16(0xFFFF)
	for i := 0; i < len(payload); i++ {
		crc ^= uint16(payload[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return fmt.Sprintf("%04X", crc)
}
