package hansard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/platform/httpx"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
)

const (
	DefaultBaseURL        = "https://hansard-api.parliament.uk"
	DefaultMembersBaseURL = "https://members-api.parliament.uk"
)

var ErrNotFound = errors.New("hansard: not found")

type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("hansard http %d (%s): %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e != nil && e.StatusCode == http.StatusNotFound
}

type Config struct {
	BaseURL           string
	MembersBaseURL    string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	MaxRetries        int
}

// Client reads sitting days, debates, divisions and members from the
// parliamentary records APIs. Every request is paced by one shared limiter.
type Client struct {
	log        *logger.Logger
	baseURL    string
	membersURL string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

func New(log *logger.Logger, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MembersBaseURL == "" {
		cfg.MembersBaseURL = DefaultMembersBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		log:        log.With("service", "HansardClient"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		membersURL: strings.TrimRight(cfg.MembersBaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		maxRetries: cfg.MaxRetries,
	}
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	backoff := time.Second
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.getOnce(ctx, rawURL, out)
		if err == nil {
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 30*time.Second))
		c.log.Warn("Records request retrying",
			"url", rawURL,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}

func (c *Client) getOnce(ctx context.Context, rawURL string, out any) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := string(raw)
		if len(body) > 512 {
			body = body[:512]
		}
		return resp, &HTTPError{StatusCode: resp.StatusCode, URL: rawURL, Body: body}
	}
	if out == nil {
		return resp, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp, fmt.Errorf("hansard decode %s: %w", rawURL, err)
	}
	return resp, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// LastSittingDay returns the most recent sitting date for house as YYYY-MM-DD.
func (c *Client) LastSittingDay(ctx context.Context, house debates.House) (string, error) {
	var raw string
	q := url.Values{"house": {string(house)}}
	if err := c.getJSON(ctx, c.endpoint("/overview/lastsittingdate.json", q), &raw); err != nil {
		return "", err
	}
	day := normaliseDate(raw)
	if day == "" {
		return "", fmt.Errorf("hansard: unparseable sitting date %q", raw)
	}
	return day, nil
}

func (c *Client) sectionsForDay(ctx context.Context, date string, house debates.House) ([]string, error) {
	var out []string
	q := url.Values{"date": {date}, "house": {string(house)}}
	if err := c.getJSON(ctx, c.endpoint("/overview/sectionsforday.json", q), &out); err != nil {
		return nil, err
	}
	return out, nil
}

type sectionTree struct {
	Title            string            `json:"Title"`
	SectionTreeItems []sectionTreeItem `json:"SectionTreeItems"`
}

type sectionTreeItem struct {
	ID         int    `json:"Id"`
	Title      string `json:"Title"`
	ParentID   *int   `json:"ParentId"`
	SortOrder  int    `json:"SortOrder"`
	ExternalID string `json:"ExternalId"`
	HRSTag     string `json:"HRSTag"`
}

// ListSittingDay lists the top-level debates of every section sat on date.
// Nested debates come back as ChildDebates of GetDebate.
func (c *Client) ListSittingDay(ctx context.Context, date string, house debates.House) ([]debates.Summary, error) {
	sections, err := c.sectionsForDay(ctx, date, house)
	if err != nil {
		return nil, fmt.Errorf("list sections %s %s: %w", date, house, err)
	}

	seen := map[string]bool{}
	var out []debates.Summary
	for _, section := range sections {
		var trees []sectionTree
		q := url.Values{"date": {date}, "house": {string(house)}, "section": {section}}
		if err := c.getJSON(ctx, c.endpoint("/overview/sectiontrees.json", q), &trees); err != nil {
			return nil, fmt.Errorf("list section %q: %w", section, err)
		}
		for _, tree := range trees {
			for _, item := range tree.SectionTreeItems {
				extID := strings.TrimSpace(item.ExternalID)
				if extID == "" || item.ParentID != nil || seen[extID] {
					continue
				}
				seen[extID] = true
				out = append(out, debates.Summary{
					ExtID:    extID,
					Title:    strings.TrimSpace(item.Title),
					House:    house,
					Date:     date,
					Location: section,
				})
			}
		}
	}
	c.log.Debug("Listed sitting day", "date", date, "house", string(house), "sections", len(sections), "debates", len(out))
	return out, nil
}

func (c *Client) GetDebate(ctx context.Context, extID string) (*debates.Debate, error) {
	extID = strings.TrimSpace(extID)
	if extID == "" {
		return nil, errors.New("debate ext id required")
	}
	var out debates.Debate
	if err := c.getJSON(ctx, c.endpoint("/debates/debate/"+url.PathEscape(extID)+".json", nil), &out); err != nil {
		return nil, err
	}
	out.Overview.Date = normaliseDate(out.Overview.Date)
	return &out, nil
}

// DivisionListing is a division as listed against a debate.
type DivisionListing struct {
	ExtID          string `json:"ExternalId"`
	DebateExtID    string `json:"DebateSectionExtId"`
	Number         int    `json:"DivisionNumber"`
	Date           string `json:"Date"`
	House          string `json:"House"`
	AyeCount       int    `json:"AyesCount"`
	NoCount        int    `json:"NoesCount"`
	TextBeforeVote string `json:"TextBeforeVote"`
	TextAfterVote  string `json:"TextAfterVote"`
}

type DivisionMember struct {
	MemberID int    `json:"MemberId"`
	Name     string `json:"Name"`
	Party    string `json:"Party"`
}

type DivisionDetail struct {
	DivisionListing
	AyeMembers []DivisionMember `json:"AyeMembers"`
	NoeMembers []DivisionMember `json:"NoeMembers"`
}

func (c *Client) ListDivisions(ctx context.Context, debateExtID string) ([]DivisionListing, error) {
	var out []DivisionListing
	path := "/debates/divisions/" + url.PathEscape(strings.TrimSpace(debateExtID)) + ".json"
	if err := c.getJSON(ctx, c.endpoint(path, nil), &out); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDivision(ctx context.Context, divisionExtID string) (*DivisionDetail, error) {
	var out DivisionDetail
	path := "/debates/division/" + url.PathEscape(strings.TrimSpace(divisionExtID)) + ".json"
	if err := c.getJSON(ctx, c.endpoint(path, nil), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type memberParty struct {
	Name string `json:"name"`
}

type memberHouseMembership struct {
	MembershipFrom string `json:"membershipFrom"`
}

type memberValue struct {
	ID                    int                   `json:"id"`
	NameDisplayAs         string                `json:"nameDisplayAs"`
	LatestParty           memberParty           `json:"latestParty"`
	LatestHouseMembership memberHouseMembership `json:"latestHouseMembership"`
}

type memberEnvelope struct {
	Value memberValue `json:"value"`
}

// GetMember returns nil, nil for an unknown member id.
func (c *Client) GetMember(ctx context.Context, id int) (*debates.Member, error) {
	if id <= 0 {
		return nil, nil
	}
	var env memberEnvelope
	u := c.membersURL + "/api/Members/" + strconv.Itoa(id)
	if err := c.getJSON(ctx, u, &env); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	v := env.Value
	return &debates.Member{
		ID:           id,
		DisplayName:  strings.TrimSpace(v.NameDisplayAs),
		Party:        strings.TrimSpace(v.LatestParty.Name),
		Constituency: strings.TrimSpace(v.LatestHouseMembership.MembershipFrom),
	}, nil
}

// normaliseDate trims a records-source timestamp to YYYY-MM-DD.
func normaliseDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return ""
	}
	day := s[:10]
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return ""
	}
	return day
}
