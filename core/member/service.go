package member

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("member not found")
	ErrNoPhoto     = core.NewNotFoundError("member has no photo")
	ErrEmailExists = errors.New("a member with this email already exists")
)

type (
	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists when a member (not in excludedIDs) already holds the email.
		CheckEmailUniqueness(ctx context.Context, email string, excludedIDs []string, exec ...core.DBExecutor) error
		CreateMember(ctx context.Context, m Member, exec ...core.DBExecutor) (Member, error)
		// QueryMembers returns a page of the members matching `filter` along with their total count.
		QueryMembers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Pagination, exec ...core.DBExecutor) ([]Member, int, error)
		GetMember(ctx context.Context, id string, exec ...core.DBExecutor) (Member, error)
		GetMembersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]Member, error)
		// QueryMembersBornIn returns the members whose date of birth falls in `month`, any year.
		QueryMembersBornIn(ctx context.Context, month time.Month, exec ...core.DBExecutor) ([]Member, error)
		UpdateMember(ctx context.Context, m Member, exec ...core.DBExecutor) (Member, error)
		DeleteMembersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		CheckEmailUniqueness(ctx context.Context, email string, exclude ...Member) error
		Create(ctx context.Context, nm NewMember) (Member, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]Member, int, error)
		GetByID(ctx context.Context, id string) (Member, error)
		Update(ctx context.Context, m Member, data NewMember) (Member, error)
		Delete(ctx context.Context, ids ...string) error
		SetPhoto(ctx context.Context, m Member, r io.Reader) (Member, error)
		GetPhoto(ctx context.Context, m Member) (core.BlobInfo, io.ReadCloser, error)
		Birthdays(ctx context.Context, month time.Month) ([]Member, error)
	}

	service struct {
		repo      Repository
		blobs     core.BlobStore
		publisher core.Publisher
		mailSvc   core.EmailService
		conf      *core.Config
		logger    core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	blobs core.BlobStore,
	publisher core.Publisher,
	mailSvc core.EmailService,
	conf *core.Config,
	logger core.Logger,
) Service {
	return &service{
		repo:      repo,
		blobs:     blobs,
		publisher: publisher,
		mailSvc:   mailSvc,
		conf:      conf,
		logger:    logger,
	}
}

func (svc *service) CheckEmailUniqueness(ctx context.Context, email string, exclude ...Member) error {
	if email == "" {
		return nil
	}
	ids := make([]string, 0, len(exclude))
	for _, m := range exclude {
		ids = append(ids, m.ID)
	}
	if err := svc.repo.CheckEmailUniqueness(ctx, email, ids); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nm NewMember) (Member, error) {
	now := core.NowFunc().UTC()
	m := Member{CreatedAt: now, UpdatedAt: now}
	nm.apply(&m, core.Today())

	m, err := svc.repo.CreateMember(ctx, m)
	if err != nil {
		return Member{}, errors.Wrap(err, "creating member")
	}
	core.MembersRegistered.Inc()

	if err := svc.publisher.Publish(ctx, core.SubjectMemberCreated, m); err != nil {
		svc.logger.Warn(fmt.Sprintf("member.Create: publishing %s: %v", core.SubjectMemberCreated, err), err)
	}
	if m.Email != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: m.FullName(), Address: m.Email}},
			Subject:      "Welcome to the family",
			TemplateName: "member_welcome",
			TemplateData: map[string]string{
				"FirstName": m.FirstName,
				"JoinDate":  m.JoinDate.String(),
			},
		})
	}
	return m, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]Member, int, error) {
	return svc.repo.QueryMembers(ctx, filter, ordering, page)
}

func (svc *service) GetByID(ctx context.Context, id string) (Member, error) {
	return svc.repo.GetMember(ctx, id)
}

// Update applies validated wizard data to `m`.
func (svc *service) Update(ctx context.Context, m Member, data NewMember) (Member, error) {
	data.apply(&m, m.JoinDate)
	m.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateMember(ctx, m)
}

// Delete removes members & their photos. Finance entries keep their amounts but lose the member link.
func (svc *service) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	members, err := svc.repo.GetMembersByID(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "finding members")
	}
	if _, err := svc.repo.DeleteMembersByID(ctx, ids); err != nil {
		return errors.Wrap(err, "deleting members")
	}
	for _, m := range members {
		svc.deletePhoto(ctx, m.PhotoKey)
	}
	return nil
}

func (svc *service) deletePhoto(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := svc.blobs.Delete(ctx, key); err != nil && !core.IsNotFound(err) {
		svc.logger.Warn(fmt.Sprintf("member: deleting photo %s: %v", key, err), err)
	}
}

// SetPhoto validates & stores a new photo for `m`, replacing the previous one.
func (svc *service) SetPhoto(ctx context.Context, m Member, r io.Reader) (Member, error) {
	buf, contentType, err := core.ReadImage(r, "photo", svc.conf.Uploads.MaxImageBytes, svc.conf.Uploads.ImageTypes)
	if err != nil {
		return Member{}, err
	}

	key := fmt.Sprintf("members/%s/photo-%s%s", m.ID, uuid.New().String()[:8], core.ImageExtension(contentType))
	if _, err := svc.blobs.Put(ctx, key, buf, int64(buf.Len()), contentType); err != nil {
		return Member{}, errors.Wrap(err, "storing photo")
	}

	oldKey := m.PhotoKey
	m.PhotoKey = key
	m.UpdatedAt = core.NowFunc().UTC()
	m, err = svc.repo.UpdateMember(ctx, m)
	if err != nil {
		svc.deletePhoto(ctx, key)
		return Member{}, errors.Wrap(err, "updating member")
	}
	if oldKey != key {
		svc.deletePhoto(ctx, oldKey)
	}
	return m, nil
}

func (svc *service) GetPhoto(ctx context.Context, m Member) (core.BlobInfo, io.ReadCloser, error) {
	if !m.HasPhoto() {
		return core.BlobInfo{}, nil, ErrNoPhoto
	}
	info, rc, err := svc.blobs.Get(ctx, m.PhotoKey)
	if err != nil {
		if core.IsNotFound(err) {
			return core.BlobInfo{}, nil, ErrNoPhoto
		}
		return core.BlobInfo{}, nil, errors.Wrap(err, "getting photo")
	}
	return info, rc, nil
}

// Birthdays lists the members born in `month`, ordered by day of month then name.
func (svc *service) Birthdays(ctx context.Context, month time.Month) ([]Member, error) {
	if month < time.January || month > time.December {
		return nil, core.NewFieldError("month", "month must be between 1 and 12")
	}
	members, err := svc.repo.QueryMembersBornIn(ctx, month)
	if err != nil {
		return nil, errors.Wrap(err, "querying birthdays")
	}
	sort.SliceStable(members, func(i, j int) bool {
		di, dj := members[i].DateOfBirth.Day(), members[j].DateOfBirth.Day()
		if di != dj {
			return di < dj
		}
		return members[i].FullName() < members[j].FullName()
	})
	return members, nil
}
