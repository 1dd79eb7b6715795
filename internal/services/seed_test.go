package services_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	"github.com/rafabene/carelink-accounts/internal/services"
	"github.com/rafabene/carelink-accounts/internal/testsupport"
)

var _ = Describe("Seeder", func() {
	var (
		env *testsupport.Env
		ctx context.Context
	)

	BeforeEach(func() {
		env = testsupport.NewEnv(GinkgoT())
		ctx = context.Background()
	})

	It("semeia os roles de sistema uma única vez", func() {
		Expect(env.Seeder.SeedSystemRoles(ctx)).To(Succeed())

		roles, err := env.Roles.ListRoles(ctx, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(roles).To(HaveLen(len(entities.SystemRoles)))
		for _, role := range roles {
			Expect(role.IsSystemRole).To(BeTrue())
		}
	})

	It("cria o admin inicial verificado e não o recria", func() {
		admin := services.BootstrapAdmin{Phone: "+250788000900", Password: "Adm1nPass!"}
		Expect(env.Seeder.EnsureBootstrapAdmin(ctx, admin)).To(Succeed())
		Expect(env.Seeder.EnsureBootstrapAdmin(ctx, admin)).To(Succeed())

		stored := reload(env, "+250788000900")
		Expect(stored.IsVerified).To(BeTrue())
		Expect(stored.IsAdmin()).To(BeTrue())
		Expect(stored.FullName).To(Equal("System Administrator"))

		result, err := env.Users.Login(ctx, "+250788000900", "Adm1nPass!")
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Gate.Authorize(result.User, entities.RoleAdmin)).To(Succeed())
		Expect(env.Notifier.Messages()).To(BeEmpty())
	})

	It("não faz nada sem telefone configurado", func() {
		Expect(env.Seeder.EnsureBootstrapAdmin(ctx, services.BootstrapAdmin{})).To(Succeed())
	})

	It("não promove um usuário já cadastrado com o mesmo telefone", func() {
		register(env, "+250788000900")
		Expect(env.Seeder.EnsureBootstrapAdmin(ctx, services.BootstrapAdmin{Phone: "+250788000900", Password: "Adm1nPass!"})).To(Succeed())
		Expect(reload(env, "+250788000900").IsAdmin()).To(BeFalse())
	})
})
