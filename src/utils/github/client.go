// Package github fetches pull request details shown next to a gig. Purely
// informational, the authoritative merge check happens in the oracle.
package github

import (
	"context"
	"fmt"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/config"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

type PullRequest struct {
	Number   int    `json:"number"`
	Title    string `json:"title"`
	State    string `json:"state"`
	Merged   bool   `json:"merged"`
	MergedAt string `json:"merged_at"`
	HtmlUrl  string `json:"html_url"`
	User     struct {
		Login string `json:"login"`
	} `json:"user"`
}

type Client struct {
	Config *config.Config
	Log    *logrus.Entry

	client *resty.Client
}

func NewClient(config *config.Config) (self *Client) {
	self = new(Client)
	self.Config = config
	self.Log = logger.NewSublogger("github")

	self.client = resty.New().
		SetBaseURL(config.Github.ApiUrl).
		SetTimeout(config.Github.RequestTimeout).
		SetHeader("Accept", "application/vnd.github+json")

	if config.Github.Token != "" {
		self.client.SetAuthToken(config.Github.Token)
	}

	return
}

func (self *Client) PullRequest(ctx context.Context, owner, repo, prId string) (out *PullRequest, err error) {
	out = new(PullRequest)

	resp, err := self.client.R().
		SetContext(ctx).
		SetResult(out).
		Get(fmt.Sprintf("/repos/%s/%s/pulls/%s", owner, repo, prId))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("github responded with %s", resp.Status())
	}

	return
}
