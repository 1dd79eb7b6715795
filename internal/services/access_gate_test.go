package services_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/testsupport"
)

var _ = Describe("AccessGate", func() {
	var (
		env   *testsupport.Env
		ctx   context.Context
		user  *entities.User
		token string
	)

	BeforeEach(func() {
		env = testsupport.NewEnv(GinkgoT())
		ctx = context.Background()
		user = registerVerified(env, testPhone)

		result, err := env.Users.Login(ctx, testPhone, testPassword)
		Expect(err).NotTo(HaveOccurred())
		token = result.AccessToken
	})

	Describe("Authenticate", func() {
		It("resolve o token para o usuário com seus roles", func() {
			found, err := env.Gate.Authenticate(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal(user.ID))
			Expect(found.HasRole(entities.RolePatient)).To(BeTrue())
		})

		DescribeTable("recusa tokens inválidos como Unauthenticated",
			func(raw func() string, expected error) {
				_, err := env.Gate.Authenticate(ctx, raw())
				Expect(err).To(HaveKind(domainerrors.KindUnauthenticated))
				Expect(domainerrors.MessageOf(err)).To(Equal(domainerrors.MessageOf(expected)))
			},
			Entry("ausente", func() string { return "  " }, domainerrors.ErrMissingToken),
			Entry("malformado", func() string { return "garbage" }, domainerrors.ErrTokenInvalid),
			Entry("adulterado", func() string { return token + "x" }, domainerrors.ErrTokenInvalid),
			Entry("expirado", func() string {
				expired, _, err := env.Deps.Tokens.Issue(user.ID, -time.Minute)
				Expect(err).NotTo(HaveOccurred())
				return expired
			}, domainerrors.ErrTokenExpired),
			Entry("usuário inexistente", func() string {
				orphan, _, err := env.Deps.Tokens.Issue(9999, time.Minute)
				Expect(err).NotTo(HaveOccurred())
				return orphan
			}, domainerrors.ErrTokenUserNotFound),
		)

		It("recusa usuário desativado com Forbidden", func() {
			admin := makeAdmin(env, "+250788000900")
			_, err := env.Users.SetUserActive(ctx, admin, user.ID, false)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.Gate.Authenticate(ctx, token)
			Expect(err).To(MatchError(domainerrors.ErrAccountInactive))
			Expect(err).To(HaveKind(domainerrors.KindForbidden))
		})
	})

	Describe("Authorize", func() {
		It("exige ao menos um dos roles pedidos", func() {
			Expect(env.Gate.Authorize(user)).To(Succeed())
			Expect(env.Gate.Authorize(user, entities.RolePatient)).To(Succeed())
			Expect(env.Gate.Authorize(user, entities.RoleAdmin, "PATIENT")).To(Succeed())

			err := env.Gate.Authorize(user, entities.RoleAdmin)
			Expect(err).To(MatchError(domainerrors.ErrMissingRole))
			Expect(err).To(HaveKind(domainerrors.KindForbidden))
		})

		It("recusa usuário ausente como Unauthenticated", func() {
			Expect(env.Gate.Authorize(nil, entities.RoleAdmin)).To(MatchError(domainerrors.ErrUnauthorized))
		})
	})
})
