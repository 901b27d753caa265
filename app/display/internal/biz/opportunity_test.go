package biz

import (
	"context"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

type mockOpportunityRepo struct {
	opps          []*Opportunity
	updatedID     string
	updatedStatus string
}

func (m *mockOpportunityRepo) ListOpportunities(ctx context.Context, organization, status string, page, pageSize int) ([]*Opportunity, int, error) {
	return m.opps, len(m.opps), nil
}

func (m *mockOpportunityRepo) GetOpportunity(ctx context.Context, id string) (*Opportunity, error) {
	for _, o := range m.opps {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, errors.NotFound("OPPORTUNITY_NOT_FOUND", "opportunity not found")
}

func (m *mockOpportunityRepo) UpdateStatus(ctx context.Context, id, status string) error {
	m.updatedID = id
	m.updatedStatus = status
	return nil
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name      string
		status    string
		expiresAt time.Time
		want      string
	}{
		{"未过期保持原状态", "new", now.Add(time.Hour), "new"},
		{"过期时转为 expired", "reviewed", now.Add(-time.Hour), "expired"},
		{"已完成不受过期影响", "completed", now.Add(-time.Hour), "completed"},
		{"进行中过期同样转换", "in_progress", now.Add(-time.Minute), "expired"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			o := &Opportunity{Status: c.status, ExpiresAt: c.expiresAt}
			if got := o.EffectiveStatus(now); got != c.want {
				t.Errorf("EffectiveStatus() = %s, want %s", got, c.want)
			}
		})
	}
}

func TestListAppliesExpiry(t *testing.T) {
	now := time.Now()
	repo := &mockOpportunityRepo{opps: []*Opportunity{
		{ID: "a", Status: "new", ExpiresAt: now.Add(-time.Hour)},
		{ID: "b", Status: "new", ExpiresAt: now.Add(time.Hour)},
		{ID: "c", Status: "completed", ExpiresAt: now.Add(-time.Hour)},
	}}
	uc := NewOpportunityUseCase(repo, log.DefaultLogger)

	opps, total, err := uc.List(context.Background(), "", "", 1, 20)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d", total)
	}
	want := map[string]string{"a": "expired", "b": "new", "c": "completed"}
	for _, o := range opps {
		if o.Status != want[o.ID] {
			t.Errorf("opportunity %s status = %s, want %s", o.ID, o.Status, want[o.ID])
		}
	}
}

func TestGetAppliesExpiry(t *testing.T) {
	repo := &mockOpportunityRepo{opps: []*Opportunity{
		{ID: "a", Status: "new", ExpiresAt: time.Now().Add(-time.Hour)},
	}}
	uc := NewOpportunityUseCase(repo, log.DefaultLogger)

	o, err := uc.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if o.Status != "expired" {
		t.Errorf("Status = %s, want expired", o.Status)
	}

	if _, err := uc.Get(context.Background(), "missing"); !errors.IsNotFound(err) {
		t.Errorf("缺失 ID 应返回 NotFound, got %v", err)
	}
}

func TestUpdateStatusValidation(t *testing.T) {
	repo := &mockOpportunityRepo{}
	uc := NewOpportunityUseCase(repo, log.DefaultLogger)

	if err := uc.UpdateStatus(context.Background(), "a", "archived"); !errors.IsBadRequest(err) {
		t.Errorf("非法状态应返回 BadRequest, got %v", err)
	}
	if repo.updatedID != "" {
		t.Error("校验失败时不应触达仓储层")
	}

	if err := uc.UpdateStatus(context.Background(), "a", "reviewed"); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if repo.updatedID != "a" || repo.updatedStatus != "reviewed" {
		t.Errorf("repo 更新参数 = %s/%s", repo.updatedID, repo.updatedStatus)
	}
}
