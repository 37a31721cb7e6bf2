package model

import "github.com/conduit-lang/nanowrimo/pkg/nano/codec"

// Payloads below are plain JSON documents, not JSON:API resources.

// Fundometer is the state of the yearly donation drive
type Fundometer struct {
	Goal       uint64            `json:"goal"`
	Raised     codec.StringFloat `json:"raised"`
	DonorCount uint64            `json:"donorCount"`
}

// StoreItem is a product listed in the merchandise store
type StoreItem struct {
	Handle string         `json:"handle"`
	Image  codec.ImageSrc `json:"image"`
	Title  string         `json:"title"`
}

// LoginRequest is the body of the sign-in exchange
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResponse carries the session token issued on sign-in
type LoginResponse struct {
	AuthToken string `json:"auth_token"`
}
