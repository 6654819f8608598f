package model

import (
	"time"

	"github.com/google/uuid"
)

type CollectionStatus string

const (
	CollectionStatusCollected CollectionStatus = "Collected"
	CollectionStatusApproved  CollectionStatus = "Approved"
	CollectionStatusPaid      CollectionStatus = "Paid"
)

type Collection struct {
	ID                 uuid.UUID
	FarmerID           uuid.UUID
	StaffID            uuid.UUID // collector who logged the pickup
	CollectionDate     time.Time
	Liters             float64
	Status             CollectionStatus
	ApprovedForCompany bool
	CompanyApprovalID  *uuid.UUID
	ApprovedBy         *uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
