package discovery

import (
	"context"
	"strings"
	"time"

	"quorum/internal/core/icp"
	"quorum/internal/core/roles"
	"quorum/internal/platform/logger"
	"quorum/internal/services/discovery/domain"
)

type fakeSourcer struct {
	byWebsite map[string][]domain.Candidate
	byNetwork map[string][]domain.Candidate
	byName    map[string][]domain.Candidate
	orgs      map[string]domain.Organization
	websiteErr,
	networkErr,
	nameErr error

	calls []string
}

func (f *fakeSourcer) SearchByWebsite(_ context.Context, website string) ([]domain.Candidate, error) {
	f.calls = append(f.calls, "website")
	return f.byWebsite[website], f.websiteErr
}

func (f *fakeSourcer) SearchByNetworkID(_ context.Context, id string) ([]domain.Candidate, error) {
	f.calls = append(f.calls, "network")
	return f.byNetwork[id], f.networkErr
}

func (f *fakeSourcer) SearchByName(_ context.Context, name string) ([]domain.Candidate, error) {
	f.calls = append(f.calls, "name")
	return f.byName[name], f.nameErr
}

func (f *fakeSourcer) CollectOrganization(_ context.Context, id string) (*domain.Organization, error) {
	f.calls = append(f.calls, "org")
	org, ok := f.orgs[id]
	if !ok {
		return &domain.Organization{ID: id}, nil
	}
	return &org, nil
}

type fakeResearcher struct {
	hits []domain.Candidate
	err  error
}

func (f *fakeResearcher) Research(context.Context, domain.CompanyTarget) ([]domain.Candidate, error) {
	return f.hits, f.err
}

type fakeVerifier struct {
	results map[string]domain.Verification
	err     error

	gotName   string
	gotDomain string
}

func (f *fakeVerifier) Verify(_ context.Context, email, fullName, dom string) (domain.Verification, error) {
	f.gotName, f.gotDomain = fullName, dom
	if f.err != nil {
		return domain.Verification{}, f.err
	}
	return f.results[email], nil
}

// fakeDiscoverer keys results by "first last" as the stages split names
type fakeDiscoverer struct {
	results map[string]domain.Guess
	err     error

	gotFirst  string
	gotLast   string
	gotDomain string
}

func (f *fakeDiscoverer) Discover(_ context.Context, firstName, lastName, dom string) (domain.Guess, error) {
	f.gotFirst, f.gotLast, f.gotDomain = firstName, lastName, dom
	if f.err != nil {
		return domain.Guess{}, f.err
	}
	return f.results[strings.TrimSpace(firstName+" "+lastName)], nil
}

type fakeRejections struct {
	got []domain.Rejection
}

func (f *fakeRejections) WriteRejections(_ context.Context, _, _ string, rs []domain.Rejection) {
	f.got = append(f.got, rs...)
}

func testService(src domain.Sourcer, res domain.Researcher, ver domain.Verifier, dis domain.Discoverer, sink domain.RejectionSink) *Service {
	profile := icp.Default("ws-test")
	s := &Service{
		log:        *logger.Named("discovery-test"),
		classifier: roles.New(roles.Compile(profile)),
		sizing:     profile.Sizing,
		sourcer:    src,
		researcher: res,
		verifier:   ver,
		discoverer: dis,
		rejections: sink,
		sleep:      func(time.Duration) {},
	}
	return s
}
