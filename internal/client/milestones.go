package client

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/url"

	"github.com/fivetwenty-io/encompass-client/internal/constants"
	"github.com/fivetwenty-io/encompass-client/internal/http"
	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
)

// MilestonesClient implements encompass.MilestonesClient.
type MilestonesClient struct {
	httpClient *http.Client
}

// NewMilestonesClient creates a new milestones client.
func NewMilestonesClient(httpClient *http.Client) *MilestonesClient {
	return &MilestonesClient{
		httpClient: httpClient,
	}
}

// List implements encompass.MilestonesClient.List.
func (c *MilestonesClient) List(ctx context.Context, loanGUID string) ([]encompass.Milestone, error) {
	path, err := loanPath(loanGUID)
	if err != nil {
		return nil, err
	}

	var milestones []encompass.Milestone

	_, err = c.httpClient.DoJSON(ctx, &http.Request{
		Method: nethttp.MethodGet,
		Path:   path + "/" + constants.SegmentMilestones,
	}, &milestones)
	if err != nil {
		return nil, fmt.Errorf("listing milestones: %w", err)
	}

	return milestones, nil
}

// Assign implements encompass.MilestonesClient.Assign.
func (c *MilestonesClient) Assign(ctx context.Context, opts *encompass.AssignMilestoneOptions) error {
	if opts == nil {
		return encompass.ErrOptionsRequired
	}

	milestone, err := c.find(ctx, opts.LoanGUID, opts.Milestone)
	if err != nil {
		return err
	}

	path, _ := loanPath(opts.LoanGUID)

	_, err = c.httpClient.Put(ctx, path+"/"+constants.SegmentAssociates+"/"+url.PathEscape(milestone.ID),
		encompass.NewUserAssignment(opts.UserID))
	if err != nil {
		return fmt.Errorf("assigning milestone %s: %w", opts.Milestone, err)
	}

	return nil
}

// Update implements encompass.MilestonesClient.Update.
func (c *MilestonesClient) Update(ctx context.Context, opts *encompass.UpdateMilestoneOptions) error {
	if opts == nil {
		return encompass.ErrOptionsRequired
	}

	if !opts.Action.Valid() {
		return fmt.Errorf("%w: %q", encompass.ErrInvalidAction, opts.Action)
	}

	milestone, err := c.find(ctx, opts.LoanGUID, opts.Milestone)
	if err != nil {
		return err
	}

	path, _ := loanPath(opts.LoanGUID)

	_, err = c.httpClient.Do(ctx, &http.Request{
		Method: nethttp.MethodPatch,
		Path:   path + "/" + constants.SegmentMilestones + "/" + url.PathEscape(milestone.ID),
		Query:  opts.Values(),
		Body:   opts.Options,
	})
	if err != nil {
		return fmt.Errorf("updating milestone %s: %w", opts.Milestone, err)
	}

	return nil
}

// Associate implements encompass.MilestonesClient.Associate.
func (c *MilestonesClient) Associate(ctx context.Context, loanGUID, name string) (json.RawMessage, error) {
	milestone, err := c.find(ctx, loanGUID, name)
	if err != nil {
		return nil, err
	}

	path, _ := loanPath(loanGUID)

	resp, err := c.httpClient.Get(ctx, path+"/"+constants.SegmentAssociates+"/"+url.PathEscape(milestone.ID), nil)
	if err != nil {
		return nil, fmt.Errorf("getting milestone associate: %w", err)
	}

	return json.RawMessage(resp.Body), nil
}

// find looks a milestone up by its exact name.
func (c *MilestonesClient) find(ctx context.Context, loanGUID, name string) (*encompass.Milestone, error) {
	milestones, err := c.List(ctx, loanGUID)
	if err != nil {
		return nil, err
	}

	milestone := encompass.FindMilestone(milestones, name)
	if milestone == nil {
		return nil, &encompass.MilestoneNotFoundError{LoanGUID: loanGUID, Milestone: name}
	}

	return milestone, nil
}
