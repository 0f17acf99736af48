package gateway

import (
	"time"

	"github.com/google/go-github/v66/github"
)

// Event is one entry of a user's public activity feed, with its payload
// decoded into a typed variant. Payload is never nil; unrecognized event
// types carry UnknownPayload.
type Event struct {
	ID        string
	Type      string
	CreatedAt time.Time
	Actor     string
	RepoName  string
	RepoURL   string
	Payload   Payload
}

// Payload is the closed set of decoded event payloads.
type Payload interface{ isPayload() }

// Commit is one commit of a PushPayload.
type Commit struct {
	SHA     string
	Author  string
	Message string
	URL     string
}

// Release describes a published release and its downloadable assets.
type Release struct {
	Name    string
	TagName string
	HTMLURL string
	Body    string
	Assets  []ReleaseAsset
}

// ReleaseAsset is one downloadable file attached to a release.
type ReleaseAsset struct {
	Name        string
	Size        int
	DownloadURL string
}

// PullRequest carries the PR fields shown in event detail blocks.
type PullRequest struct {
	Title        string
	HTMLURL      string
	State        string
	CreatedAt    time.Time
	Commits      int
	Comments     int
	Additions    int
	Deletions    int
	ChangedFiles int
	Body         string
}

// Review is a submitted pull request review.
type Review struct {
	HTMLURL     string
	State       string
	SubmittedAt time.Time
	Body        string
}

// Comment is an issue or review comment.
type Comment struct {
	HTMLURL   string
	Body      string
	Path      string
	CreatedAt time.Time
}

// IssueDetail carries the issue fields shown in event detail blocks.
type IssueDetail struct {
	Title     string
	HTMLURL   string
	State     string
	CreatedAt time.Time
	Comments  int
	Body      string
}

type PushPayload struct {
	Ref     string
	Commits []Commit
}

type CreatePayload struct {
	Ref         string
	RefType     string
	Description string
}

type DeletePayload struct {
	Ref     string
	RefType string
}

type ReleasePayload struct {
	Action  string
	Release Release
}

type PullRequestPayload struct {
	Action      string
	PullRequest PullRequest
}

type ReviewPayload struct {
	Action      string
	PullRequest PullRequest
	Review      Review
}

type CommentPayload struct {
	Action      string
	Comment     Comment
	Issue       *IssueDetail
	PullRequest *PullRequest
}

type IssuesPayload struct {
	Action string
	Issue  IssueDetail
}

type ForkPayload struct {
	ForkeeFullName string
	ForkeeHTMLURL  string
}

type WatchPayload struct {
	Action string
}

// UnknownPayload is the fallback for event types the decoder does not know;
// the generic Event fields (id, type, actor, repo) still apply.
type UnknownPayload struct{}

func (PushPayload) isPayload()        {}
func (CreatePayload) isPayload()      {}
func (DeletePayload) isPayload()      {}
func (ReleasePayload) isPayload()     {}
func (PullRequestPayload) isPayload() {}
func (ReviewPayload) isPayload()      {}
func (CommentPayload) isPayload()     {}
func (IssuesPayload) isPayload()      {}
func (ForkPayload) isPayload()        {}
func (WatchPayload) isPayload()       {}
func (UnknownPayload) isPayload()     {}

// decodeEvent converts a raw API event into the typed model.
func decodeEvent(ev *github.Event) Event {
	out := Event{
		ID:        ev.GetID(),
		Type:      ev.GetType(),
		CreatedAt: ev.GetCreatedAt().Time,
	}
	if a := ev.GetActor(); a != nil {
		out.Actor = a.GetLogin()
	}
	if r := ev.GetRepo(); r != nil {
		out.RepoName = r.GetName()
		out.RepoURL = apiToHTMLURL(r.GetURL())
	}
	out.Payload = decodePayload(ev)
	return out
}

func decodePayload(ev *github.Event) Payload {
	raw, err := ev.ParsePayload()
	if err != nil {
		return UnknownPayload{}
	}
	switch p := raw.(type) {
	case *github.PushEvent:
		pp := PushPayload{Ref: p.GetRef()}
		for _, c := range p.Commits {
			commit := Commit{
				SHA:     c.GetSHA(),
				Message: c.GetMessage(),
				URL:     apiToHTMLURL(c.GetURL()),
			}
			if a := c.GetAuthor(); a != nil {
				commit.Author = a.GetName()
			}
			pp.Commits = append(pp.Commits, commit)
		}
		return pp
	case *github.CreateEvent:
		return CreatePayload{Ref: p.GetRef(), RefType: p.GetRefType(), Description: p.GetDescription()}
	case *github.DeleteEvent:
		return DeletePayload{Ref: p.GetRef(), RefType: p.GetRefType()}
	case *github.ReleaseEvent:
		rp := ReleasePayload{Action: p.GetAction()}
		if r := p.GetRelease(); r != nil {
			rp.Release = Release{
				Name:    r.GetName(),
				TagName: r.GetTagName(),
				HTMLURL: r.GetHTMLURL(),
				Body:    r.GetBody(),
			}
			for _, a := range r.Assets {
				rp.Release.Assets = append(rp.Release.Assets, ReleaseAsset{
					Name:        a.GetName(),
					Size:        a.GetSize(),
					DownloadURL: a.GetBrowserDownloadURL(),
				})
			}
		}
		return rp
	case *github.PullRequestEvent:
		return PullRequestPayload{Action: p.GetAction(), PullRequest: decodePR(p.GetPullRequest())}
	case *github.PullRequestReviewEvent:
		rp := ReviewPayload{Action: p.GetAction(), PullRequest: decodePR(p.GetPullRequest())}
		if r := p.GetReview(); r != nil {
			rp.Review = Review{
				HTMLURL:     r.GetHTMLURL(),
				State:       r.GetState(),
				SubmittedAt: r.GetSubmittedAt().Time,
				Body:        r.GetBody(),
			}
		}
		return rp
	case *github.PullRequestReviewCommentEvent:
		cp := CommentPayload{Action: p.GetAction()}
		if c := p.GetComment(); c != nil {
			cp.Comment = Comment{
				HTMLURL:   c.GetHTMLURL(),
				Body:      c.GetBody(),
				Path:      c.GetPath(),
				CreatedAt: c.GetCreatedAt().Time,
			}
		}
		if pr := p.GetPullRequest(); pr != nil {
			d := decodePR(pr)
			cp.PullRequest = &d
		}
		return cp
	case *github.IssueCommentEvent:
		cp := CommentPayload{Action: p.GetAction()}
		if c := p.GetComment(); c != nil {
			cp.Comment = Comment{
				HTMLURL:   c.GetHTMLURL(),
				Body:      c.GetBody(),
				CreatedAt: c.GetCreatedAt().Time,
			}
		}
		if i := p.GetIssue(); i != nil {
			d := decodeIssue(i)
			cp.Issue = &d
		}
		return cp
	case *github.IssuesEvent:
		ip := IssuesPayload{Action: p.GetAction()}
		if i := p.GetIssue(); i != nil {
			ip.Issue = decodeIssue(i)
		}
		return ip
	case *github.ForkEvent:
		fp := ForkPayload{}
		if f := p.GetForkee(); f != nil {
			fp.ForkeeFullName = f.GetFullName()
			fp.ForkeeHTMLURL = f.GetHTMLURL()
		}
		return fp
	case *github.WatchEvent:
		return WatchPayload{Action: p.GetAction()}
	default:
		return UnknownPayload{}
	}
}

func decodePR(pr *github.PullRequest) PullRequest {
	if pr == nil {
		return PullRequest{}
	}
	return PullRequest{
		Title:        pr.GetTitle(),
		HTMLURL:      pr.GetHTMLURL(),
		State:        pr.GetState(),
		CreatedAt:    pr.GetCreatedAt().Time,
		Commits:      pr.GetCommits(),
		Comments:     pr.GetComments(),
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		ChangedFiles: pr.GetChangedFiles(),
		Body:         pr.GetBody(),
	}
}

func decodeIssue(i *github.Issue) IssueDetail {
	return IssueDetail{
		Title:     i.GetTitle(),
		HTMLURL:   i.GetHTMLURL(),
		State:     i.GetState(),
		CreatedAt: i.GetCreatedAt().Time,
		Comments:  i.GetComments(),
		Body:      i.GetBody(),
	}
}
