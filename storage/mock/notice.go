package mockstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/notice"
	"github.com/trezcool/masomo-portal/core/user"
)

type NoticeStore struct {
	coll      *collection[notice.Notice]
	validator *core.Validator
}

var _ notice.Service = (*NoticeStore)(nil)

var noticeSorting = sorting[notice.Notice]{
	comparators:  notice.Comparators,
	defaultField: notice.DefaultSortField,
	defaultOrder: core.SortDesc,
}

func (s *NoticeStore) GetNotices(ctx context.Context, filter notice.QueryFilter, pr core.PageRequest) (core.Page[notice.Notice], error) {
	filter.Search = core.CleanString(filter.Search)
	return s.coll.page(ctx, filter.Match, pr, noticeSorting)
}

func (s *NoticeStore) GetNoticeByID(ctx context.Context, id string) (notice.Notice, error) {
	return s.coll.get(ctx, id)
}

func (s *NoticeStore) CreateNotice(ctx context.Context, nn notice.NewNotice) (notice.Notice, error) {
	if err := s.validator.Struct(nn); err != nil {
		return notice.Notice{}, err
	}

	now := s.coll.now()
	n := notice.Notice{
		ID:         uuid.New().String(),
		Title:      core.CleanString(nn.Title),
		Content:    nn.Content,
		Priority:   nn.Priority,
		Author:     nn.Author,
		Recipients: nn.Recipients,
		ReadBy:     []string{},
		ExpiresAt:  nn.ExpiresAt.UTC(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if n.Priority == "" {
		n.Priority = notice.PriorityNormal
	}
	if n.Recipients == nil {
		n.Recipients = []user.Ref{}
	}
	if err := s.coll.insert(ctx, n); err != nil {
		return notice.Notice{}, err
	}
	return n, nil
}

func (s *NoticeStore) UpdateNotice(ctx context.Context, id string, un notice.UpdateNotice) (notice.Notice, error) {
	if err := s.validator.Struct(un); err != nil {
		return notice.Notice{}, err
	}
	return s.coll.update(ctx, id, func(n *notice.Notice) error {
		un.Apply(n)
		n.ExpiresAt = n.ExpiresAt.UTC()
		n.UpdatedAt = touch(s.coll.now(), n.UpdatedAt)
		return nil
	})
}

func (s *NoticeStore) DeleteNotice(ctx context.Context, id string) error {
	return s.coll.remove(ctx, id)
}

// MarkAsRead records that userID read the notice. Marking twice is a no-op.
func (s *NoticeStore) MarkAsRead(ctx context.Context, id, userID string) (notice.Notice, error) {
	if userID == "" {
		return notice.Notice{}, core.NewValidationError(nil, core.FieldError{Field: "userId", Error: "this field is required"})
	}
	return s.coll.update(ctx, id, func(n *notice.Notice) error {
		if n.IsReadBy(userID) {
			return nil
		}
		n.ReadBy = append(n.ReadBy, userID)
		n.UpdatedAt = touch(s.coll.now(), n.UpdatedAt)
		return nil
	})
}

// GetUnreadCount counts the live notices addressed to userID that they have not read.
func (s *NoticeStore) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	now := s.coll.now()
	unread, err := s.coll.filter(ctx, func(n notice.Notice) bool {
		return n.IsFor(userID) && !n.IsReadBy(userID) && !n.IsExpired(now)
	})
	return len(unread), err
}
