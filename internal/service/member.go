package service

import (
	"context"
	"errors"
	"strings"

	"github.com/mayuuuu918/nagoyameshi/internal/access"
	"github.com/mayuuuu918/nagoyameshi/internal/model"
	"github.com/mayuuuu918/nagoyameshi/internal/repository"
)

// ProfileInput holds the editable member fields.
type ProfileInput struct {
	Name        string `json:"name" form:"name" validate:"required,max=255"`
	Kana        string `json:"kana" form:"kana" validate:"required,max=255,katakana"`
	Email       string `json:"email" form:"email" validate:"required,max=255,email"`
	PostalCode  string `json:"postal_code" form:"postal_code" validate:"required,len=7,numeric"`
	Address     string `json:"address" form:"address" validate:"required,max=255"`
	PhoneNumber string `json:"phone_number" form:"phone_number" validate:"required,numeric,min=10,max=11"`
	Birthday    string `json:"birthday" form:"birthday" validate:"omitempty,numeric,len=8"`
	Occupation  string `json:"occupation" form:"occupation" validate:"omitempty,max=255"`
}

// RegisterInput is the member sign-up form.
type RegisterInput struct {
	ProfileInput
	Password string `json:"password" form:"password" validate:"required,min=8,max=72"`
}

// MemberService manages member accounts and profiles.
type MemberService struct {
	Members    *repository.MemberRepo
	BcryptCost int
}

func NewMemberService(members *repository.MemberRepo, bcryptCost int) *MemberService {
	return &MemberService{Members: members, BcryptCost: bcryptCost}
}

// Register creates a member account.
func (s *MemberService) Register(ctx context.Context, in RegisterInput) (model.Member, error) {
	in.ProfileInput = in.ProfileInput.trimmed()
	if err := check(in); err != nil {
		return model.Member{}, err
	}
	m := in.ProfileInput.member()
	if err := s.Members.Create(ctx, &m, in.Password, s.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.Member{}, Invalid("email", "has already been taken")
		}
		return model.Member{}, err
	}
	return m, nil
}

// Profile returns the member p.
func (s *MemberService) Profile(ctx context.Context, p access.Principal) (model.Member, error) {
	id, ok := p.MemberID()
	if !ok {
		return model.Member{}, access.ErrUnauthenticated
	}
	m, err := s.Members.GetByID(ctx, id)
	return m, ownershipError(err)
}

// Get loads any member by id; used by the administrator surface and the
// ownership lookup.
func (s *MemberService) Get(ctx context.Context, id uint64) (model.Member, error) {
	m, err := s.Members.GetByID(ctx, id)
	return m, ownershipError(err)
}

// UpdateProfile overwrites the profile of memberID, which must be p.
func (s *MemberService) UpdateProfile(ctx context.Context, p access.Principal, memberID uint64, in ProfileInput) (model.Member, error) {
	id, ok := p.MemberID()
	if !ok {
		return model.Member{}, access.ErrUnauthenticated
	}
	if id != memberID {
		return model.Member{}, access.ErrNotOwner
	}
	in = in.trimmed()
	if err := check(in); err != nil {
		return model.Member{}, err
	}
	cur, err := s.Members.GetByID(ctx, memberID)
	if err != nil {
		return model.Member{}, ownershipError(err)
	}
	m := in.member()
	m.ID, m.CreatedAt = cur.ID, cur.CreatedAt
	if err := s.Members.UpdateProfile(ctx, &m); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.Member{}, Invalid("email", "has already been taken")
		}
		return model.Member{}, ownershipError(err)
	}
	return m, nil
}

// List pages through members for administrators.
func (s *MemberService) List(ctx context.Context, keyword string, page int) (model.Page[model.Member], error) {
	if page < 1 {
		page = 1
	}
	return s.Members.List(ctx, keyword, page, AdminPerPage)
}

func (in ProfileInput) trimmed() ProfileInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Kana = strings.TrimSpace(in.Kana)
	in.Email = strings.TrimSpace(in.Email)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.Address = strings.TrimSpace(in.Address)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Birthday = strings.TrimSpace(in.Birthday)
	in.Occupation = strings.TrimSpace(in.Occupation)
	return in
}

func (in ProfileInput) member() model.Member {
	m := model.Member{
		Name:        in.Name,
		Kana:        in.Kana,
		Email:       in.Email,
		PostalCode:  in.PostalCode,
		Address:     in.Address,
		PhoneNumber: in.PhoneNumber,
	}
	if in.Birthday != "" {
		b := in.Birthday
		m.Birthday = &b
	}
	if in.Occupation != "" {
		o := in.Occupation
		m.Occupation = &o
	}
	return m
}
