package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myhostelpal/complaint-service/internal/domain"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

func TestEscalate_EmailFailureForOneAdminDoesNotStopOthers(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, "Asha Rao", domain.RoleStudent, true)
	admins := []*domain.User{
		f.user(t, "Admin One", domain.RoleAdmin, true),
		f.user(t, "Admin Two", domain.RoleAdmin, true),
		f.user(t, "Admin Three", domain.RoleAdmin, true),
	}
	f.email.failTo[admins[1].Email] = true

	ticket := &domain.Ticket{ID: "t-1", Title: "Fire alarm beeping", Priority: domain.TicketPriorityHigh, StudentID: student.ID}
	f.notifier.Escalate(f.ctx, ticket)
	f.notifier.Wait()

	withEmail := 0
	for _, admin := range admins {
		items := f.notificationsFor(t, admin)
		require.Len(t, items, 1)
		if items[0].Delivered(domain.ChannelEmail) {
			withEmail++
		}
	}
	assert.Equal(t, 2, withEmail)
	assert.ElementsMatch(t, []string{admins[0].Email, admins[2].Email}, f.email.Sent())
}

func TestEscalate_UrgentAddsSMSForRecipientsWithPhones(t *testing.T) {
	f := newFixture(t)
	phone := "+911234567890"
	token := "device-1"
	admin := f.user(t, "Admin One", domain.RoleAdmin, true)
	admin.PhoneNumber = &phone
	admin.PushToken = &token
	require.NoError(t, f.store.Users().Update(f.ctx, admin))
	f.user(t, "Admin Two", domain.RoleAdmin, true)

	f.notifier.Escalate(f.ctx, &domain.Ticket{ID: "t-2", Title: "Student collapsed", Priority: domain.TicketPriorityUrgent})
	f.notifier.Wait()

	assert.Equal(t, []string{phone}, f.sms.Sent())
	assert.Equal(t, []string{token}, f.push.Sent())
	items := f.notificationsFor(t, admin)
	require.Len(t, items, 1)
	assert.ElementsMatch(t,
		[]domain.NotificationChannel{domain.ChannelPush, domain.ChannelEmail, domain.ChannelSMS},
		items[0].SentVia)
}

func TestMarkAllRead_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, "Asha Rao", domain.RoleStudent, true)
	for i := 0; i < 3; i++ {
		_, err := f.notifier.Notify(f.ctx, NotifyInput{Recipient: student, Title: "Hello", Message: "m", Type: domain.NotificationSystem})
		require.NoError(t, err)
	}

	first, err := f.notifier.MarkAllRead(f.ctx, student)
	require.NoError(t, err)
	assert.Equal(t, int64(3), first)
	snapshot := f.notificationsFor(t, student)

	second, err := f.notifier.MarkAllRead(f.ctx, student)
	require.NoError(t, err)
	assert.Zero(t, second)
	assert.Equal(t, snapshot, f.notificationsFor(t, student))
	for _, n := range snapshot {
		assert.True(t, n.IsRead)
		assert.NotNil(t, n.ReadAt)
	}
}

func TestMarkRead_OwnershipAndIdempotence(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Asha Rao", domain.RoleStudent, true)
	other := f.user(t, "Vikram Singh", domain.RoleStudent, true)
	n, err := f.notifier.Notify(f.ctx, NotifyInput{Recipient: owner, Title: "Hello", Message: "m", Type: domain.NotificationSystem})
	require.NoError(t, err)

	_, err = f.notifier.MarkRead(f.ctx, n.ID, other)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = f.notifier.MarkRead(f.ctx, "missing", owner)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	read, err := f.notifier.MarkRead(f.ctx, n.ID, owner)
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)
	again, err := f.notifier.MarkRead(f.ctx, n.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, read.ReadAt, again.ReadAt)
}

func TestNotificationList_CountsUnread(t *testing.T) {
	f := newFixture(t)
	student := f.user(t, "Asha Rao", domain.RoleStudent, true)
	var first string
	for i := 0; i < 4; i++ {
		n, err := f.notifier.Notify(f.ctx, NotifyInput{Recipient: student, Title: "Hello", Message: "m", Type: domain.NotificationSystem})
		require.NoError(t, err)
		if i == 0 {
			first = n.ID
		}
	}
	_, err := f.notifier.MarkRead(f.ctx, first, student)
	require.NoError(t, err)

	page, err := f.notifier.List(f.ctx, student, false, 1, 3)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 3)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 3, page.Unread)

	unread, err := f.notifier.List(f.ctx, student, true, 0, 0)
	require.NoError(t, err)
	assert.Len(t, unread.Notifications, 3)
	assert.Equal(t, 10, unread.Limit)
}
