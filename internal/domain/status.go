package domain

type PartyStatus string

const (
	StatusQueued     PartyStatus = "queued"
	StatusCheckingIn PartyStatus = "checking-in"
	StatusSeated     PartyStatus = "seated"
)
