// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
	"strings"
)

// ResolveProject resolves a project name or literal ID to a Project.
// Names are matched case-insensitively via the search endpoint; if no name
// matches, the value is tried as an ID before giving up with NotFoundError.
func (c *Client) ResolveProject(ctx context.Context, nameOrID string) (*Project, error) {
	req := struct {
		Name string `json:"name"`
	}{Name: nameOrID}

	var resp struct {
		Projects []Project `json:"projects"`
	}
	if err := c.do(ctx, "POST", "/v1/projects/search", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Projects) > 0 {
		return &resp.Projects[0], nil
	}

	var project Project
	err := c.do(ctx, "GET", "/v1/projects/"+nameOrID, nil, &project)
	if err != nil {
		return nil, wrapNotFound(err, "project", nameOrID)
	}
	return &project, nil
}

// ResolveLogstream resolves a logstream name or literal ID within a project.
func (c *Client) ResolveLogstream(ctx context.Context, projectID, nameOrID string) (*Logstream, error) {
	var streams []Logstream
	path := fmt.Sprintf("/v1/projects/%s/logstreams", projectID)
	if err := c.do(ctx, "GET", path, nil, &streams); err != nil {
		return nil, err
	}

	for _, ls := range streams {
		if strings.EqualFold(ls.Name, nameOrID) || ls.ID == nameOrID {
			return &ls, nil
		}
	}

	return nil, &NotFoundError{Resource: "logstream", Name: nameOrID}
}
