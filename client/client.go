package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/oakmere/adviserdesk"
	"github.com/oakmere/adviserdesk/internal/domain"
	"github.com/oakmere/adviserdesk/internal/present/rest/presenter"
)

const defaultTimeout = 3 * time.Second

// Client mirrors the portal's fact data in a local cache and applies
// mutations optimistically. All cache writes go through the
// snapshot/apply/rollback protocol in regionCache.
type Client struct {
	client    *http.Client
	cache     *regionCache
	baseURL   string
	userAgent string
}

func New(baseURL string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:  &httpClient,
		cache:   newRegionCache(),
		baseURL: baseURL,
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

type apiError struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Fields []string `json:"fields"`
}

// request performs one round trip and maps the error envelope back onto the
// domain taxonomy. A failed round trip becomes a TransportError so callers
// can tell "the server said no" from "the server was never reached".
func (c *Client) request(ctx context.Context, method, path string, body any, response any) error {

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var remote apiError
		if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
			return domain.TransportError{Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
		}
		switch remote.Code {
		case presenter.CodeValidationFailed:
			return domain.ValidationError{Fields: remote.Fields}
		case presenter.CodeOwnerNotFound:
			return domain.OwnerNotFoundError{}
		case presenter.CodeNotFound:
			return domain.NotFoundError{}
		case presenter.CodeConstraintViolation:
			return domain.ConstraintViolationError{Detail: remote.Error}
		default:
			return domain.TransportError{Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
		}
	}

	if response == nil {
		return nil
	}
	err = json.NewDecoder(resp.Body).Decode(response)
	if err != nil {
		return domain.TransportError{Err: fmt.Errorf("failed to decode response: %v", err)}
	}

	return nil
}

func healthOwnerKey(ref adviserdesk.OwnerRef) string {
	return RegionHealth + ":owner:" + adviserdesk.ComposeOwnerRef(ref)
}

func healthGroupKey(group string) string {
	return RegionHealth + ":group:" + group
}

func vulnOwnerKey(ref adviserdesk.OwnerRef) string {
	return RegionVuln + ":owner:" + adviserdesk.ComposeOwnerRef(ref)
}

func vulnGroupKey(group string) string {
	return RegionVuln + ":group:" + group
}

// --- health facts ---

func (c *Client) ListHealthFacts(ctx context.Context, owner adviserdesk.OwnerRef) ([]adviserdesk.HealthFact, error) {
	key := healthOwnerKey(owner)
	if x, found := c.cache.lookup(key); found {
		return x.([]adviserdesk.HealthFact), nil
	}

	facts, err := c.fetchHealthFacts(ctx, "owner="+url.QueryEscape(adviserdesk.ComposeOwnerRef(owner)))
	if err != nil {
		return nil, err
	}

	c.cache.put(key, facts)
	return facts, nil
}

func (c *Client) ListHealthFactsByGroup(ctx context.Context, group string) ([]adviserdesk.HealthFact, error) {
	key := healthGroupKey(group)
	if x, found := c.cache.lookup(key); found {
		return x.([]adviserdesk.HealthFact), nil
	}

	facts, err := c.fetchHealthFacts(ctx, "group="+url.QueryEscape(group))
	if err != nil {
		return nil, err
	}

	c.cache.put(key, facts)
	return facts, nil
}

func (c *Client) fetchHealthFacts(ctx context.Context, query string) ([]adviserdesk.HealthFact, error) {
	var facts []adviserdesk.HealthFact
	err := c.request(ctx, http.MethodGet, "/api/v1/health-facts?"+query, nil, &facts)
	if err != nil {
		return nil, err
	}
	if facts == nil {
		facts = []adviserdesk.HealthFact{}
	}
	return facts, nil
}

// RefreshHealthFacts refetches one owner's facts in the background. The
// refresh is cancelled if a mutation starts before it lands.
func (c *Client) RefreshHealthFacts(owner adviserdesk.OwnerRef) {
	ctx, cancel := context.WithCancel(context.Background())
	c.cache.registerRefresh(RegionHealth, cancel)

	go func() {
		defer cancel()
		facts, err := c.fetchHealthFacts(ctx, "owner="+url.QueryEscape(adviserdesk.ComposeOwnerRef(owner)))
		if err != nil {
			return
		}
		c.cache.putRefreshed(ctx, healthOwnerKey(owner), facts)
	}()
}

func (c *Client) CreateHealthFact(ctx context.Context, owner adviserdesk.OwnerRef, draft adviserdesk.HealthFactDraft) (adviserdesk.HealthFact, error) {
	now := time.Now().UTC()
	status := draft.Status
	if status == "" {
		status = adviserdesk.HealthStatusActive
	}
	local := adviserdesk.HealthFact{
		ID:            adviserdesk.LocalID([]byte(draft.Category), now),
		Owner:         owner,
		Category:      draft.Category,
		ConditionName: draft.ConditionName,
		DiagnosisDate: draft.DiagnosisDate,
		Status:        status,
		Medication:    draft.Medication,
		Notes:         draft.Notes,
		CDate:         now,
	}

	ownerKey := healthOwnerKey(owner)
	snapshot := c.cache.beginMutation(RegionHealth)
	c.cache.apply(RegionHealth, func(key string, value any) any {
		facts := value.([]adviserdesk.HealthFact)
		if key != ownerKey {
			return facts
		}
		next := make([]adviserdesk.HealthFact, 0, len(facts)+1)
		next = append(next, facts...)
		next = append(next, local)
		return next
	})

	var created adviserdesk.HealthFact
	err := c.request(ctx, http.MethodPost, "/api/v1/health-facts", adviserdesk.CreateHealthFactRequest{
		Owner:           owner,
		HealthFactDraft: draft,
	}, &created)
	if err != nil {
		c.cache.rollback(RegionHealth, snapshot)
	}
	c.cache.settle(RegionHealth)
	if err != nil {
		return adviserdesk.HealthFact{}, err
	}

	return created, nil
}

func (c *Client) UpdateHealthFact(ctx context.Context, id string, patch adviserdesk.HealthFactPatch) (adviserdesk.HealthFact, error) {
	snapshot := c.cache.beginMutation(RegionHealth)
	c.cache.apply(RegionHealth, func(key string, value any) any {
		facts := value.([]adviserdesk.HealthFact)
		next := make([]adviserdesk.HealthFact, len(facts))
		for i, f := range facts {
			if f.ID == id {
				f = mergeHealthPatch(f, patch)
			}
			next[i] = f
		}
		return next
	})

	var updated adviserdesk.HealthFact
	err := c.request(ctx, http.MethodPatch, "/api/v1/health-facts/"+id, patch, &updated)
	if err != nil {
		c.cache.rollback(RegionHealth, snapshot)
	}
	c.cache.settle(RegionHealth)
	if err != nil {
		return adviserdesk.HealthFact{}, err
	}

	return updated, nil
}

func (c *Client) DeleteHealthFact(ctx context.Context, id string) error {
	snapshot := c.cache.beginMutation(RegionHealth)
	c.cache.apply(RegionHealth, func(key string, value any) any {
		facts := value.([]adviserdesk.HealthFact)
		next := make([]adviserdesk.HealthFact, 0, len(facts))
		for _, f := range facts {
			if f.ID != id {
				next = append(next, f)
			}
		}
		return next
	})

	err := c.request(ctx, http.MethodDelete, "/api/v1/health-facts/"+id, nil, nil)
	if err != nil {
		c.cache.rollback(RegionHealth, snapshot)
	}
	c.cache.settle(RegionHealth)
	return err
}

// --- vulnerability facts ---

func (c *Client) ListVulnerabilityFacts(ctx context.Context, owner adviserdesk.OwnerRef) ([]adviserdesk.VulnerabilityFact, error) {
	key := vulnOwnerKey(owner)
	if x, found := c.cache.lookup(key); found {
		return x.([]adviserdesk.VulnerabilityFact), nil
	}

	facts, err := c.fetchVulnerabilityFacts(ctx, "owner="+url.QueryEscape(adviserdesk.ComposeOwnerRef(owner)))
	if err != nil {
		return nil, err
	}

	c.cache.put(key, facts)
	return facts, nil
}

func (c *Client) ListVulnerabilityFactsByGroup(ctx context.Context, group string) ([]adviserdesk.VulnerabilityFact, error) {
	key := vulnGroupKey(group)
	if x, found := c.cache.lookup(key); found {
		return x.([]adviserdesk.VulnerabilityFact), nil
	}

	facts, err := c.fetchVulnerabilityFacts(ctx, "group="+url.QueryEscape(group))
	if err != nil {
		return nil, err
	}

	c.cache.put(key, facts)
	return facts, nil
}

func (c *Client) fetchVulnerabilityFacts(ctx context.Context, query string) ([]adviserdesk.VulnerabilityFact, error) {
	var facts []adviserdesk.VulnerabilityFact
	err := c.request(ctx, http.MethodGet, "/api/v1/vulnerability-facts?"+query, nil, &facts)
	if err != nil {
		return nil, err
	}
	if facts == nil {
		facts = []adviserdesk.VulnerabilityFact{}
	}
	return facts, nil
}

func (c *Client) RefreshVulnerabilityFacts(owner adviserdesk.OwnerRef) {
	ctx, cancel := context.WithCancel(context.Background())
	c.cache.registerRefresh(RegionVuln, cancel)

	go func() {
		defer cancel()
		facts, err := c.fetchVulnerabilityFacts(ctx, "owner="+url.QueryEscape(adviserdesk.ComposeOwnerRef(owner)))
		if err != nil {
			return
		}
		c.cache.putRefreshed(ctx, vulnOwnerKey(owner), facts)
	}()
}

func (c *Client) CreateVulnerabilityFact(ctx context.Context, owner adviserdesk.OwnerRef, draft adviserdesk.VulnerabilityFactDraft) (adviserdesk.VulnerabilityFact, error) {
	now := time.Now().UTC()
	status := draft.Status
	if status == "" {
		status = adviserdesk.VulnStatusActive
	}
	local := adviserdesk.VulnerabilityFact{
		ID:          adviserdesk.LocalID([]byte(draft.Description), now),
		Owner:       owner,
		Description: draft.Description,
		Adjustments: draft.Adjustments,
		Diagnosed:   draft.Diagnosed,
		Status:      status,
		Notes:       draft.Notes,
		CDate:       now,
	}

	ownerKey := vulnOwnerKey(owner)
	snapshot := c.cache.beginMutation(RegionVuln)
	c.cache.apply(RegionVuln, func(key string, value any) any {
		facts := value.([]adviserdesk.VulnerabilityFact)
		if key != ownerKey {
			return facts
		}
		next := make([]adviserdesk.VulnerabilityFact, 0, len(facts)+1)
		next = append(next, facts...)
		next = append(next, local)
		return next
	})

	var created adviserdesk.VulnerabilityFact
	err := c.request(ctx, http.MethodPost, "/api/v1/vulnerability-facts", adviserdesk.CreateVulnerabilityFactRequest{
		Owner:                  owner,
		VulnerabilityFactDraft: draft,
	}, &created)
	if err != nil {
		c.cache.rollback(RegionVuln, snapshot)
	}
	c.cache.settle(RegionVuln)
	if err != nil {
		return adviserdesk.VulnerabilityFact{}, err
	}

	return created, nil
}

func (c *Client) UpdateVulnerabilityFact(ctx context.Context, id string, patch adviserdesk.VulnerabilityFactPatch) (adviserdesk.VulnerabilityFact, error) {
	snapshot := c.cache.beginMutation(RegionVuln)
	c.cache.apply(RegionVuln, func(key string, value any) any {
		facts := value.([]adviserdesk.VulnerabilityFact)
		next := make([]adviserdesk.VulnerabilityFact, len(facts))
		for i, f := range facts {
			if f.ID == id {
				f = mergeVulnerabilityPatch(f, patch)
			}
			next[i] = f
		}
		return next
	})

	var updated adviserdesk.VulnerabilityFact
	err := c.request(ctx, http.MethodPatch, "/api/v1/vulnerability-facts/"+id, patch, &updated)
	if err != nil {
		c.cache.rollback(RegionVuln, snapshot)
	}
	c.cache.settle(RegionVuln)
	if err != nil {
		return adviserdesk.VulnerabilityFact{}, err
	}

	return updated, nil
}

func (c *Client) DeleteVulnerabilityFact(ctx context.Context, id string) error {
	snapshot := c.cache.beginMutation(RegionVuln)
	c.cache.apply(RegionVuln, func(key string, value any) any {
		facts := value.([]adviserdesk.VulnerabilityFact)
		next := make([]adviserdesk.VulnerabilityFact, 0, len(facts))
		for _, f := range facts {
			if f.ID != id {
				next = append(next, f)
			}
		}
		return next
	})

	err := c.request(ctx, http.MethodDelete, "/api/v1/vulnerability-facts/"+id, nil, nil)
	if err != nil {
		c.cache.rollback(RegionVuln, snapshot)
	}
	c.cache.settle(RegionVuln)
	return err
}

func mergeHealthPatch(fact adviserdesk.HealthFact, patch adviserdesk.HealthFactPatch) adviserdesk.HealthFact {
	if patch.Category != nil {
		fact.Category = *patch.Category
	}
	if patch.ConditionName != nil {
		fact.ConditionName = patch.ConditionName
	}
	if patch.DiagnosisDate != nil {
		fact.DiagnosisDate = patch.DiagnosisDate
	}
	if patch.Status != nil {
		fact.Status = *patch.Status
	}
	if patch.Medication != nil {
		fact.Medication = patch.Medication
	}
	if patch.Notes != nil {
		fact.Notes = patch.Notes
	}
	return fact
}

func mergeVulnerabilityPatch(fact adviserdesk.VulnerabilityFact, patch adviserdesk.VulnerabilityFactPatch) adviserdesk.VulnerabilityFact {
	if patch.Description != nil {
		fact.Description = *patch.Description
	}
	if patch.Adjustments != nil {
		fact.Adjustments = patch.Adjustments
	}
	if patch.Diagnosed != nil {
		fact.Diagnosed = *patch.Diagnosed
	}
	if patch.Status != nil {
		fact.Status = *patch.Status
	}
	if patch.Notes != nil {
		fact.Notes = patch.Notes
	}
	return fact
}
