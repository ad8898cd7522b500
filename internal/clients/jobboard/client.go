package jobboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/maxaizer/jobboard-bot/internal/domain/models"
	"golang.org/x/time/rate"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const DefaultBaseURL = "http://localhost:5000"

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ResponseError is returned when the backend answers with a non-2xx status.
type ResponseError struct {
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("request failed with status %v, body: %v", e.StatusCode, e.Body)
}

type jobPayload struct {
	Title       string      `json:"title"`
	Company     string      `json:"company"`
	Location    string      `json:"location"`
	JobType     string      `json:"job_type"`
	Tags        models.Tags `json:"tags"`
	PostingDate string      `json:"posting_date"`
}

func payloadFrom(job models.Job) jobPayload {
	return jobPayload{
		Title:       job.Title,
		Company:     job.Company,
		Location:    job.Location,
		JobType:     job.JobType,
		Tags:        job.Tags,
		PostingDate: job.PostingDate,
	}
}

type Client struct {
	baseURL     string
	httpClient  HTTPClient
	rateLimiter *rate.Limiter
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: &http.Client{}}
}

func (c *Client) SetHTTPClient(client HTTPClient) {
	c.httpClient = client
}

func (c *Client) SetRateLimit(maxRequestsPerSecond float32) {
	if maxRequestsPerSecond <= 0 {
		c.rateLimiter = nil
		return
	}
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

func (c *Client) ListJobs(ctx context.Context, parameters ListParameters) ([]models.Job, error) {

	if err := parameters.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	apiURL := c.baseURL + "/api/jobs"
	if query := parameters.ToUrlParams().Encode(); query != "" {
		apiURL += "?" + query
	}

	body, err := c.sendRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}

	var jobs []models.Job
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&jobs); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %w", err)
	}

	return jobs, nil
}

func (c *Client) CreateJob(ctx context.Context, job models.Job) (models.Job, error) {
	return c.sendJob(ctx, http.MethodPost, c.baseURL+"/api/jobs/", job)
}

func (c *Client) UpdateJob(ctx context.Context, job models.Job) (models.Job, error) {
	if job.IsNew() {
		return models.Job{}, fmt.Errorf("can't update job without id")
	}
	return c.sendJob(ctx, http.MethodPut, c.baseURL+"/api/jobs/"+strconv.Itoa(job.ID)+"/", job)
}

func (c *Client) DeleteJob(ctx context.Context, id int) error {
	_, err := c.sendRequest(ctx, http.MethodDelete, c.baseURL+"/api/jobs/"+strconv.Itoa(id), nil)
	return err
}

func (c *Client) Health(ctx context.Context) error {
	_, err := c.sendRequest(ctx, http.MethodGet, c.baseURL+"/health", nil)
	return err
}

func (c *Client) sendJob(ctx context.Context, method string, url string, job models.Job) (models.Job, error) {

	data, err := json.Marshal(payloadFrom(job))
	if err != nil {
		return models.Job{}, fmt.Errorf("error encoding job: %w", err)
	}

	body, err := c.sendRequest(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return models.Job{}, err
	}

	saved := job
	if len(bytes.TrimSpace(body)) == 0 {
		return saved, nil
	}

	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&saved); err != nil {
		return models.Job{}, fmt.Errorf("error decoding JSON response: %w", err)
	}
	return saved, nil
}

func (c *Client) sendRequest(ctx context.Context, method string, url string, body io.Reader) ([]byte, error) {

	if c.rateLimiter != nil {
		err := c.rateLimiter.Wait(ctx)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	return c.handleResponse(resp)
}

func (c *Client) handleResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &ResponseError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
