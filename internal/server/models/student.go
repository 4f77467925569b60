package models

import "time"

// Student is a student record. AddressEncrypted holds the AES-GCM blob
// produced by the cipher service; it is nil when encryption is disabled or
// the address is empty.
type Student struct {
	ID               string
	Name             string
	Email            string
	AddressEncrypted []byte
	Grade            string
	CreatedAt        time.Time
}
