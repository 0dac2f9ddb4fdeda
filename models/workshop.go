package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VisitStatus string

const (
	VisitPending     VisitStatus = "pending"
	VisitConfirmed   VisitStatus = "confirmed"
	VisitRescheduled VisitStatus = "rescheduled"
	VisitCancelled   VisitStatus = "cancelled"
	VisitCompleted   VisitStatus = "completed"
)

var VisitStatuses = []VisitStatus{
	VisitPending, VisitConfirmed, VisitRescheduled, VisitCancelled, VisitCompleted,
}

func (s VisitStatus) Valid() bool {
	for _, v := range VisitStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type VisitPurpose string

const (
	PurposeGeneral     VisitPurpose = "general_visit"
	PurposeCustomOrder VisitPurpose = "custom_order"
	PurposeBulk        VisitPurpose = "bulk_purchase"
	PurposeArtisanMeet VisitPurpose = "artisan_meet"
	PurposeOther       VisitPurpose = "other"
)

func (p VisitPurpose) Valid() bool {
	switch p {
	case PurposeGeneral, PurposeCustomOrder, PurposeBulk, PurposeArtisanMeet, PurposeOther:
		return true
	}
	return false
}

type ContactMethod string

const (
	ContactEmail    ContactMethod = "email"
	ContactPhone    ContactMethod = "phone"
	ContactWhatsApp ContactMethod = "whatsapp"
)

func (c ContactMethod) Valid() bool {
	return c == ContactEmail || c == ContactPhone || c == ContactWhatsApp
}

type WorkshopVisit struct {
	ID                  primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name                string             `json:"name" bson:"name"`
	Email               string             `json:"email" bson:"email"`
	Phone               string             `json:"phone" bson:"phone"`
	PreferredDate       time.Time          `json:"preferredDate" bson:"preferredDate"`
	PreferredTime       string             `json:"preferredTime" bson:"preferredTime"`
	Message             string             `json:"message,omitempty" bson:"message,omitempty"`
	Status              VisitStatus        `json:"status" bson:"status"`
	ConfirmedDate       *time.Time         `json:"confirmedDate,omitempty" bson:"confirmedDate,omitempty"`
	ConfirmedTime       string             `json:"confirmedTime,omitempty" bson:"confirmedTime,omitempty"`
	AdminNotes          string             `json:"adminNotes,omitempty" bson:"adminNotes,omitempty"`
	NumberOfVisitors    int                `json:"numberOfVisitors" bson:"numberOfVisitors"`
	Purpose             VisitPurpose       `json:"purpose" bson:"purpose"`
	SpecialRequirements string             `json:"specialRequirements,omitempty" bson:"specialRequirements,omitempty"`
	IsGuidedTour        bool               `json:"isGuidedTour" bson:"isGuidedTour"`
	ContactMethod       ContactMethod      `json:"contactMethod" bson:"contactMethod"`
	CreatedAt           time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type VisitFilter struct {
	Status VisitStatus
	Email  string
	// From and To bound preferredDate as [From, To); zero values are open.
	From time.Time
	To   time.Time
}

type VisitStatusUpdate struct {
	Status        VisitStatus
	ConfirmedDate *time.Time
	ConfirmedTime *string
	AdminNotes    *string
}
