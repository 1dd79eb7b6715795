package services_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/services"
	"github.com/rafabene/carelink-accounts/internal/testsupport"
)

var _ = Describe("RoleService", func() {
	var (
		env *testsupport.Env
		ctx context.Context
	)

	BeforeEach(func() {
		env = testsupport.NewEnv(GinkgoT())
		ctx = context.Background()
	})

	systemRole := func(name string) *entities.Role {
		GinkgoHelper()
		role, err := env.Deps.Roles.FindByName(ctx, name)
		Expect(err).NotTo(HaveOccurred())
		return role
	}

	Describe("roles customizados", func() {
		It("cria com nome normalizado e nome de exibição padrão", func() {
			role, err := env.Roles.CreateRole(ctx, services.CreateRoleInput{Name: "Nurse"})
			Expect(err).NotTo(HaveOccurred())
			Expect(role.Name).To(Equal("nurse"))
			Expect(role.DisplayName).To(Equal("nurse"))
			Expect(role.IsSystemRole).To(BeFalse())
			Expect(role.IsActive).To(BeTrue())
			Expect(env.Publisher.Types()).To(ContainElement(entities.EventRoleCreated))
		})

		It("rejeita nome repetido sem diferenciar maiúsculas", func() {
			_, err := env.Roles.CreateRole(ctx, services.CreateRoleInput{Name: "nurse"})
			Expect(err).NotTo(HaveOccurred())

			_, err = env.Roles.CreateRole(ctx, services.CreateRoleInput{Name: "NURSE"})
			Expect(err).To(MatchError(domainerrors.ErrRoleAlreadyExists))
			Expect(err).To(HaveKind(domainerrors.KindConflict))

			_, err = env.Roles.CreateRole(ctx, services.CreateRoleInput{Name: "Admin"})
			Expect(err).To(MatchError(domainerrors.ErrRoleAlreadyExists))
		})

		It("rejeita nome inválido", func() {
			_, err := env.Roles.CreateRole(ctx, services.CreateRoleInput{Name: "night nurse"})
			Expect(err).To(MatchError(domainerrors.ErrInvalidRoleName))
		})

		It("atualiza somente os campos informados", func() {
			desc := "Original"
			role, err := env.Roles.CreateRole(ctx, services.CreateRoleInput{Name: "nurse", DisplayName: "Nurse", Description: &desc})
			Expect(err).NotTo(HaveOccurred())

			display := "Registered Nurse"
			updated, err := env.Roles.UpdateRole(ctx, role.ID, services.UpdateRoleInput{DisplayName: &display})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.DisplayName).To(Equal("Registered Nurse"))
			Expect(*updated.Description).To(Equal("Original"))
			Expect(updated.Name).To(Equal("nurse"))
		})

		It("desativa sem apagar e esconde da listagem padrão", func() {
			role, err := env.Roles.CreateRole(ctx, services.CreateRoleInput{Name: "nurse"})
			Expect(err).NotTo(HaveOccurred())

			Expect(env.Roles.DeleteRole(ctx, role.ID)).To(Succeed())
			events := len(env.Publisher.Events())
			Expect(env.Roles.DeleteRole(ctx, role.ID)).To(Succeed())
			Expect(env.Publisher.Events()).To(HaveLen(events))

			active, err := env.Roles.ListRoles(ctx, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(HaveLen(len(entities.SystemRoles)))

			all, err := env.Roles.ListRoles(ctx, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(len(entities.SystemRoles) + 1))

			stored, err := env.Roles.GetRole(ctx, role.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.IsActive).To(BeFalse())
		})

		It("retorna NotFound para role inexistente", func() {
			_, err := env.Roles.GetRole(ctx, 9999)
			Expect(err).To(MatchError(domainerrors.ErrRoleNotFound))
			Expect(env.Roles.DeleteRole(ctx, 9999)).To(MatchError(domainerrors.ErrRoleNotFound))
		})
	})

	Describe("roles de sistema", func() {
		It("não podem ser alterados nem desativados", func() {
			admin := systemRole(entities.RoleAdmin)
			display := "Root"

			_, err := env.Roles.UpdateRole(ctx, admin.ID, services.UpdateRoleInput{DisplayName: &display})
			Expect(err).To(MatchError(domainerrors.ErrSystemRoleProtected))
			Expect(err).To(HaveKind(domainerrors.KindForbidden))

			Expect(env.Roles.DeleteRole(ctx, admin.ID)).To(MatchError(domainerrors.ErrSystemRoleProtected))
			Expect(systemRole(entities.RoleAdmin).IsActive).To(BeTrue())
		})
	})

	Describe("atribuição a usuários", func() {
		var user *entities.User

		BeforeEach(func() {
			user = register(env, testPhone)
		})

		It("é idempotente ao atribuir um role já presente", func() {
			events := len(env.Publisher.Events())

			updated, err := env.Roles.AssignRolesToUser(ctx, user.ID, []string{entities.RolePatient})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ActiveRoleNames()).To(ConsistOf(entities.RolePatient))
			Expect(env.Publisher.Events()).To(HaveLen(events))
		})

		It("adiciona apenas o que falta e publica a mudança", func() {
			updated, err := env.Roles.AssignRolesToUser(ctx, user.ID, []string{"patient", "Pharmacist"})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ActiveRoleNames()).To(ConsistOf(entities.RolePatient, entities.RolePharmacist))

			events := env.Publisher.Events()
			last := events[len(events)-1]
			Expect(last.Type).To(Equal(entities.EventUserRolesChanged))
			Expect(last.Attributes).To(HaveKeyWithValue("assigned", entities.RolePharmacist))
		})

		It("recusa role desativado", func() {
			role, err := env.Roles.CreateRole(ctx, services.CreateRoleInput{Name: "nurse"})
			Expect(err).NotTo(HaveOccurred())
			Expect(env.Roles.DeleteRole(ctx, role.ID)).To(Succeed())

			_, err = env.Roles.AssignRolesToUser(ctx, user.ID, []string{"nurse"})
			Expect(err).To(MatchError(domainerrors.ErrRoleInactive))
			Expect(err).To(HaveErrorField("roles"))
		})

		It("recusa role inexistente sem aplicar os demais", func() {
			_, err := env.Roles.AssignRolesToUser(ctx, user.ID, []string{"pharmacist", "astronaut"})
			Expect(err).To(MatchError(domainerrors.ErrRoleNotFound))
			Expect(reload(env, testPhone).ActiveRoleNames()).To(ConsistOf(entities.RolePatient))
		})

		It("retorna NotFound para usuário inexistente", func() {
			_, err := env.Roles.AssignRolesToUser(ctx, 9999, []string{"patient"})
			Expect(err).To(MatchError(domainerrors.ErrUserNotFound))
		})

		It("remove roles e ignora os que o usuário não tem", func() {
			events := len(env.Publisher.Events())
			updated, err := env.Roles.RemoveRolesFromUser(ctx, user.ID, []string{entities.RoleCaretaker})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ActiveRoleNames()).To(ConsistOf(entities.RolePatient))
			Expect(env.Publisher.Events()).To(HaveLen(events))

			updated, err = env.Roles.RemoveRolesFromUser(ctx, user.ID, []string{entities.RolePatient})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Roles).To(BeEmpty())
		})

		It("role desativado deixa de contar nas checagens", func() {
			role, err := env.Roles.CreateRole(ctx, services.CreateRoleInput{Name: "nurse"})
			Expect(err).NotTo(HaveOccurred())
			_, err = env.Roles.AssignRolesToUser(ctx, user.ID, []string{"nurse"})
			Expect(err).NotTo(HaveOccurred())
			Expect(reload(env, testPhone).HasRole("nurse")).To(BeTrue())

			Expect(env.Roles.DeleteRole(ctx, role.ID)).To(Succeed())

			stored := reload(env, testPhone)
			Expect(stored.HasRole("nurse")).To(BeFalse())
			Expect(stored.HoldsRoleID(role.ID)).To(BeTrue())
		})
	})
})
