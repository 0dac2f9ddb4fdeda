package workshop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"kondapalli/db"
	"kondapalli/middleware"
	"kondapalli/models"
	"kondapalli/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Store interface {
	Insert(ctx context.Context, v *models.WorkshopVisit) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.WorkshopVisit, error)
	SlotTaken(ctx context.Context, from, to time.Time, slot string) (bool, error)
	BookedTimes(ctx context.Context, from, to time.Time) ([]string, error)
	Find(ctx context.Context, f models.VisitFilter, skip, limit int64) ([]models.WorkshopVisit, int64, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, u models.VisitStatusUpdate) (*models.WorkshopVisit, error)
	Count(ctx context.Context, f models.VisitFilter) (int64, error)
	CountBy(ctx context.Context, field string) (map[string]int64, error)
}

type Service struct {
	store  Store
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time

	// mu serializes the slot check with the insert that claims it.
	mu sync.Mutex
}

func NewService(store Store, loc *time.Location, logger *zap.Logger) *Service {
	return &Service{store: store, loc: loc, logger: logger, now: time.Now}
}

type CreateRequest struct {
	Name                string               `json:"name"`
	Email               string               `json:"email"`
	Phone               string               `json:"phone"`
	PreferredDate       string               `json:"preferredDate"`
	PreferredTime       string               `json:"preferredTime"`
	Message             string               `json:"message"`
	NumberOfVisitors    int                  `json:"numberOfVisitors"`
	Purpose             models.VisitPurpose  `json:"purpose"`
	SpecialRequirements string               `json:"specialRequirements"`
	IsGuidedTour        bool                 `json:"isGuidedTour"`
	ContactMethod       models.ContactMethod `json:"contactMethod"`
}

func (s *Service) build(req CreateRequest) (*models.WorkshopVisit, error) {
	v := &models.WorkshopVisit{
		Name:                strings.TrimSpace(req.Name),
		Email:               strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:               strings.TrimSpace(req.Phone),
		PreferredTime:       strings.TrimSpace(req.PreferredTime),
		Message:             strings.TrimSpace(req.Message),
		Status:              models.VisitPending,
		NumberOfVisitors:    req.NumberOfVisitors,
		Purpose:             req.Purpose,
		SpecialRequirements: req.SpecialRequirements,
		IsGuidedTour:        req.IsGuidedTour,
		ContactMethod:       req.ContactMethod,
	}
	if v.Name == "" || v.Email == "" || v.Phone == "" || req.PreferredDate == "" || v.PreferredTime == "" {
		return nil, utils.BadRequest("Name, email, phone, preferred date and time are required")
	}

	day, ok := utils.ParseDate(req.PreferredDate, s.loc)
	if !ok {
		return nil, utils.BadRequest("Invalid preferred date")
	}
	today, _ := utils.DayBounds(s.now(), s.loc)
	if day.Before(today) {
		return nil, utils.BadRequest("Preferred date cannot be in the past")
	}
	if err := CheckWindow(day, v.PreferredTime); err != nil {
		return nil, err
	}
	v.PreferredDate = day

	if v.NumberOfVisitors == 0 {
		v.NumberOfVisitors = 1
	}
	if v.NumberOfVisitors < 1 {
		return nil, utils.BadRequest("Number of visitors must be at least 1")
	}
	if v.Purpose == "" {
		v.Purpose = models.PurposeGeneral
	}
	if !v.Purpose.Valid() {
		return nil, utils.BadRequest("Invalid visit purpose")
	}
	if v.ContactMethod == "" {
		v.ContactMethod = models.ContactEmail
	}
	if !v.ContactMethod.Valid() {
		return nil, utils.BadRequest("Invalid contact method")
	}
	return v, nil
}

// Create books a visit request after checking the date, the opening hours
// and that no pending or confirmed request holds the same slot.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.WorkshopVisit, error) {
	v, err := s.build(req)
	if err != nil {
		middleware.RecordVisitRequest("rejected")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, to := utils.DayBounds(v.PreferredDate, s.loc)
	taken, err := s.store.SlotTaken(ctx, from, to, v.PreferredTime)
	if err != nil {
		return nil, fmt.Errorf("check slot: %w", err)
	}
	if taken {
		middleware.RecordVisitRequest("conflict")
		return nil, utils.BadRequest("This time slot is already booked. Please choose a different time.")
	}
	if err := s.store.Insert(ctx, v); err != nil {
		return nil, fmt.Errorf("insert visit: %w", err)
	}

	middleware.RecordVisitRequest("accepted")
	s.logger.Info("workshop visit requested",
		zap.String("id", v.ID.Hex()),
		zap.String("date", v.PreferredDate.Format("2006-01-02")),
		zap.String("time", v.PreferredTime),
	)
	return v, nil
}

// Filter builds a listing filter from raw query values. date narrows the
// listing to one calendar day.
func (s *Service) Filter(status, email, date string) (models.VisitFilter, error) {
	f := models.VisitFilter{
		Status: models.VisitStatus(status),
		Email:  strings.ToLower(strings.TrimSpace(email)),
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, utils.BadRequest("Invalid status")
	}
	if date != "" {
		day, ok := utils.ParseDate(date, s.loc)
		if !ok {
			return f, utils.BadRequest("Invalid date")
		}
		f.From, f.To = utils.DayBounds(day, s.loc)
	}
	return f, nil
}

func (s *Service) List(ctx context.Context, f models.VisitFilter, page, limit int) ([]models.WorkshopVisit, utils.Pagination, error) {
	visits, total, err := s.store.Find(ctx, f, utils.Skip(page, limit), int64(limit))
	if err != nil {
		return nil, utils.Pagination{}, fmt.Errorf("list visits: %w", err)
	}
	return visits, utils.Paginate(page, limit, total), nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, utils.BadRequest("Invalid visit ID")
	}
	return oid, nil
}

func notFound(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return utils.NotFound("Workshop visit not found")
	}
	return err
}

func (s *Service) Get(ctx context.Context, id string) (*models.WorkshopVisit, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	v, err := s.store.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}
	return v, nil
}

type StatusRequest struct {
	Status        models.VisitStatus `json:"status"`
	ConfirmedDate string             `json:"confirmedDate"`
	ConfirmedTime string             `json:"confirmedTime"`
	AdminNotes    string             `json:"adminNotes"`
}

func (s *Service) UpdateStatus(ctx context.Context, id string, req StatusRequest) (*models.WorkshopVisit, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, utils.BadRequest("Invalid status")
	}

	u := models.VisitStatusUpdate{Status: req.Status}
	if req.ConfirmedDate != "" {
		day, ok := utils.ParseDate(req.ConfirmedDate, s.loc)
		if !ok {
			return nil, utils.BadRequest("Invalid confirmed date")
		}
		u.ConfirmedDate = &day
	}
	if req.ConfirmedTime != "" {
		if _, _, err := ParseTime(req.ConfirmedTime); err != nil {
			return nil, err
		}
		u.ConfirmedTime = &req.ConfirmedTime
	}
	if req.AdminNotes != "" {
		u.AdminNotes = &req.AdminNotes
	}

	v, err := s.store.UpdateStatus(ctx, oid, u)
	if err != nil {
		return nil, notFound(err)
	}
	s.logger.Info("workshop visit status updated", zap.String("id", id), zap.String("status", string(v.Status)))
	return v, nil
}

type Availability struct {
	Date           string   `json:"date"`
	AvailableSlots []string `json:"availableSlots"`
	TotalAvailable int      `json:"totalAvailable"`
	Message        string   `json:"message,omitempty"`
}

// AvailableSlots lists the opening-hour slots of date that no active
// request holds.
func (s *Service) AvailableSlots(ctx context.Context, date string) (*Availability, error) {
	if date == "" {
		return nil, utils.BadRequest("Date is required")
	}
	day, ok := utils.ParseDate(date, s.loc)
	if !ok {
		return nil, utils.BadRequest("Invalid date")
	}

	out := &Availability{Date: date, AvailableSlots: []string{}}
	slots := Slots(day.Weekday())
	if len(slots) == 0 {
		out.Message = "Workshop is closed on Sundays"
		return out, nil
	}

	from, to := utils.DayBounds(day, s.loc)
	booked, err := s.store.BookedTimes(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("booked slots: %w", err)
	}
	for _, slot := range slots {
		if !utils.Contains(booked, slot) {
			out.AvailableSlots = append(out.AvailableSlots, slot)
		}
	}
	out.TotalAvailable = len(out.AvailableSlots)
	return out, nil
}

type Stats struct {
	TotalVisits     int64            `json:"totalVisits"`
	TodayVisits     int64            `json:"todayVisits"`
	ThisMonthVisits int64            `json:"thisMonthVisits"`
	StatusCounts    map[string]int64 `json:"statusCounts"`
	PurposeCounts   map[string]int64 `json:"purposeCounts"`
}

// Stats counts visits by preferred date. Today and this month include every
// visit scheduled from that point on.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now()
	today, _ := utils.DayBounds(now, s.loc)
	month := utils.MonthStart(now, s.loc)

	var st Stats
	var err error
	if st.TotalVisits, err = s.store.Count(ctx, models.VisitFilter{}); err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}
	if st.TodayVisits, err = s.store.Count(ctx, models.VisitFilter{From: today}); err != nil {
		return nil, fmt.Errorf("count visits today: %w", err)
	}
	if st.ThisMonthVisits, err = s.store.Count(ctx, models.VisitFilter{From: month}); err != nil {
		return nil, fmt.Errorf("count visits this month: %w", err)
	}
	if st.StatusCounts, err = s.store.CountBy(ctx, "status"); err != nil {
		return nil, fmt.Errorf("visit status counts: %w", err)
	}
	if st.PurposeCounts, err = s.store.CountBy(ctx, "purpose"); err != nil {
		return nil, fmt.Errorf("visit purpose counts: %w", err)
	}
	return &st, nil
}
