package events

import (
	"familynotes/cmd/internal/domain/entity"
	"fmt"
)

// FamilyEvent is something family members get told about. It renders into
// the title and message of an inbox notification.
type FamilyEvent interface {
	GetType() entity.NotificationType
	Render() (title, message string)
}

type MemberJoined struct {
	Name         string
	Relationship string
}

func (*MemberJoined) GetType() entity.NotificationType {
	return entity.NotificationMemberJoined
}

func (e *MemberJoined) Render() (string, string) {
	return "New family member", fmt.Sprintf("%s joined the family as %s.", e.Name, e.Relationship)
}

type MemberLeft struct {
	Name string
}

func (*MemberLeft) GetType() entity.NotificationType {
	return entity.NotificationMemberLeft
}

func (e *MemberLeft) Render() (string, string) {
	return "A member left", fmt.Sprintf("%s left the family.", e.Name)
}

type MemberRemoved struct {
	Name      string
	RemovedBy string
}

func (*MemberRemoved) GetType() entity.NotificationType {
	return entity.NotificationMemberRemoved
}

func (e *MemberRemoved) Render() (string, string) {
	return "A member was removed", fmt.Sprintf("%s was removed from the family by %s.", e.Name, e.RemovedBy)
}

type RoleChanged struct {
	Name string
	Role entity.Role
}

func (*RoleChanged) GetType() entity.NotificationType {
	return entity.NotificationRoleChanged
}

func (e *RoleChanged) Render() (string, string) {
	return "Role changed", fmt.Sprintf("%s is now a %s.", e.Name, e.Role)
}

type DeathReported struct {
	CreatorName  string
	ReporterName string
}

func (*DeathReported) GetType() entity.NotificationType {
	return entity.NotificationDeathReported
}

func (e *DeathReported) Render() (string, string) {
	return "Death reported", fmt.Sprintf("%s reported the passing of %s.", e.ReporterName, e.CreatorName)
}

type DeathReportCancelled struct {
	CreatorName string
	CancelledBy string
}

func (*DeathReportCancelled) GetType() entity.NotificationType {
	return entity.NotificationDeathReportCancelled
}

func (e *DeathReportCancelled) Render() (string, string) {
	return "Death report cancelled", fmt.Sprintf("%s cancelled the death report of %s.", e.CancelledBy, e.CreatorName)
}

type ConsentRequested struct {
	CreatorName   string
	InitiatorName string
}

func (*ConsentRequested) GetType() entity.NotificationType {
	return entity.NotificationConsentRequested
}

func (e *ConsentRequested) Render() (string, string) {
	return "Your consent is needed", fmt.Sprintf("%s asked the family to agree on opening the notes of %s.", e.InitiatorName, e.CreatorName)
}

type ContentOpened struct {
	CreatorName string
}

func (*ContentOpened) GetType() entity.NotificationType {
	return entity.NotificationContentOpened
}

func (e *ContentOpened) Render() (string, string) {
	return "Notes opened", fmt.Sprintf("Everyone agreed. The notes of %s are now open.", e.CreatorName)
}

type ConsentDeclined struct {
	CreatorName string
}

func (*ConsentDeclined) GetType() entity.NotificationType {
	return entity.NotificationConsentDeclined
}

func (e *ConsentDeclined) Render() (string, string) {
	return "Consent declined", fmt.Sprintf("Not everyone agreed to open the notes of %s. They stay closed.", e.CreatorName)
}

type DeletionRequested struct {
	CreatorName   string
	InitiatorName string
}

func (*DeletionRequested) GetType() entity.NotificationType {
	return entity.NotificationDeletionRequested
}

func (e *DeletionRequested) Render() (string, string) {
	return "Deletion requested", fmt.Sprintf("%s asked the family to agree on permanently deleting the notes of %s.", e.InitiatorName, e.CreatorName)
}

type DeletionDeclined struct {
	CreatorName string
}

func (*DeletionDeclined) GetType() entity.NotificationType {
	return entity.NotificationDeletionDeclined
}

func (e *DeletionDeclined) Render() (string, string) {
	return "Deletion declined", fmt.Sprintf("The notes of %s will not be deleted.", e.CreatorName)
}

type DeletionCancelled struct {
	CreatorName string
	CancelledBy string
}

func (*DeletionCancelled) GetType() entity.NotificationType {
	return entity.NotificationDeletionCancelled
}

func (e *DeletionCancelled) Render() (string, string) {
	return "Deletion cancelled", fmt.Sprintf("%s cancelled the deletion request for the notes of %s.", e.CancelledBy, e.CreatorName)
}

type DeletionCompleted struct {
	CreatorName string
}

func (*DeletionCompleted) GetType() entity.NotificationType {
	return entity.NotificationDeletionCompleted
}

func (e *DeletionCompleted) Render() (string, string) {
	return "Notes deleted", fmt.Sprintf("The notes of %s were permanently deleted.", e.CreatorName)
}

type AccessGranted struct {
	Category entity.Category
}

func (*AccessGranted) GetType() entity.NotificationType {
	return entity.NotificationAccessGranted
}

func (e *AccessGranted) Render() (string, string) {
	return "Access granted", fmt.Sprintf("You can now read the %s category.", e.Category)
}

type AccessRevoked struct {
	Category entity.Category
}

func (*AccessRevoked) GetType() entity.NotificationType {
	return entity.NotificationAccessRevoked
}

func (e *AccessRevoked) Render() (string, string) {
	return "Access revoked", fmt.Sprintf("You can no longer read the %s category.", e.Category)
}

type PresetsApplied struct {
	Categories []entity.Category
}

func (*PresetsApplied) GetType() entity.NotificationType {
	return entity.NotificationPresetsApplied
}

func (e *PresetsApplied) Render() (string, string) {
	return "Recommended access applied", fmt.Sprintf("You were granted %d categories recommended for you.", len(e.Categories))
}
