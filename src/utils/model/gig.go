package model

// Gig is the persisted projection of one escrow, rebuilt from contract events
type Gig struct {
	Id         uint64 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Client     string `gorm:"index" json:"client"`
	Freelancer string `gorm:"index" json:"freelancer"`

	// Fixed-point integer as a decimal string, 18 fractional digits
	Amount string `json:"amount"`

	RepoOwner string `json:"repoOwner"`
	RepoName  string `json:"repoName"`
	PrId      string `json:"prId"`
	IsOpen    bool   `gorm:"index" json:"isOpen"`
	CreatedAt int64  `json:"createdAt"`

	// LOCKED, PENDING, MERGED or CANCELLED
	Status string `gorm:"index" json:"status"`
}

func (Gig) TableName() string {
	return "gigs"
}
