package services_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/domain/repositories"
	"github.com/rafabene/carelink-accounts/internal/services"
	"github.com/rafabene/carelink-accounts/internal/testsupport"
)

var _ = Describe("UserService", func() {
	var (
		env *testsupport.Env
		ctx context.Context
	)

	BeforeEach(func() {
		env = testsupport.NewEnv(GinkgoT())
		ctx = context.Background()
	})

	Describe("Register", func() {
		It("cria usuário ativo, não verificado, com o role padrão e envia o código", func() {
			user := register(env, testPhone)

			Expect(user.ID).NotTo(BeZero())
			Expect(user.IsActive).To(BeTrue())
			Expect(user.IsVerified).To(BeFalse())
			Expect(user.ActiveRoleNames()).To(ConsistOf(entities.RolePatient))

			stored := reload(env, testPhone)
			Expect(stored.PasswordHash).NotTo(Equal(testPassword))
			Expect(env.Deps.Hasher.Verify(testPassword, stored.PasswordHash)).To(BeTrue())
			Expect(*stored.VerificationCode).To(Equal(env.Codes.Last()))
			Expect(stored.VerificationCodeExpires.Equal(env.Clock.Now().Add(10 * time.Minute))).To(BeTrue())

			messages := env.Notifier.Messages()
			Expect(messages).To(HaveLen(1))
			Expect(messages[0].Destination).To(Equal(testPhone))
			Expect(messages[0].Message).To(ContainSubstring(env.Codes.Last()))
			Expect(messages[0].Message).To(ContainSubstring("10 minutes"))

			Expect(env.Publisher.Types()).To(Equal([]entities.AccountEventType{
				entities.EventUserRegistered,
				entities.EventVerificationSent,
			}))
		})

		It("aceita roles explícitos sem diferenciar maiúsculas", func() {
			user := register(env, testPhone, "Pharmacist", "caretaker")
			Expect(user.ActiveRoleNames()).To(ConsistOf(entities.RolePharmacist, entities.RoleCaretaker))
		})

		It("rejeita telefone já cadastrado", func() {
			register(env, testPhone)

			_, err := env.Users.Register(ctx, services.RegisterInput{
				FullName: "Other", PhoneNumber: testPhone, Gender: "female", Password: testPassword,
			})
			Expect(err).To(MatchError(domainerrors.ErrPhoneAlreadyExists))
			Expect(err).To(HaveKind(domainerrors.KindConflict))
			Expect(err).To(HaveErrorField("phone_number"))
		})

		It("rejeita telefone fora do formato E.164", func() {
			_, err := env.Users.Register(ctx, services.RegisterInput{
				FullName: testName, PhoneNumber: "0788000111", Gender: "male", Password: testPassword,
			})
			Expect(err).To(MatchError(domainerrors.ErrInvalidPhoneNumber))
			Expect(env.Notifier.Messages()).To(BeEmpty())
		})

		It("não cria nada quando um role não existe", func() {
			_, err := env.Users.Register(ctx, services.RegisterInput{
				FullName: testName, PhoneNumber: testPhone, Gender: "male", Password: testPassword,
				Roles: []string{"patient", "astronaut"},
			})
			Expect(err).To(MatchError(domainerrors.ErrRoleNotFound))
			Expect(err).To(HaveErrorField("roles"))

			user, err := env.Deps.Users.FindByPhone(ctx, testPhone)
			Expect(err).NotTo(HaveOccurred())
			Expect(user).To(BeNil())
			Expect(env.Notifier.Messages()).To(BeEmpty())
			Expect(env.Publisher.Types()).To(BeEmpty())
		})

		It("trata role desativado como inexistente", func() {
			role, err := env.Roles.CreateRole(ctx, services.CreateRoleInput{Name: "nurse"})
			Expect(err).NotTo(HaveOccurred())
			Expect(env.Roles.DeleteRole(ctx, role.ID)).To(Succeed())

			_, err = env.Users.Register(ctx, services.RegisterInput{
				FullName: testName, PhoneNumber: testPhone, Gender: "male", Password: testPassword,
				Roles: []string{"nurse"},
			})
			Expect(err).To(HaveKind(domainerrors.KindNotFound))
		})

		It("rejeita senha vazia como dado inválido", func() {
			_, err := env.Users.Register(ctx, services.RegisterInput{
				FullName: testName, PhoneNumber: testPhone, Gender: "male", Password: "",
			})
			Expect(err).To(HaveKind(domainerrors.KindInvalid))
			Expect(err).To(HaveErrorField("password"))
		})

		It("mantém o cadastro quando o SMS falha", func() {
			env.Notifier.SetFailing(true)

			user := register(env, testPhone)
			Expect(user.ID).NotTo(BeZero())

			events := env.Publisher.Events()
			Expect(events).To(HaveLen(2))
			Expect(events[1].Type).To(Equal(entities.EventVerificationSent))
			Expect(events[1].Attributes).To(HaveKeyWithValue("delivered", "false"))

			// O código continua válido e pode ser reenviado depois
			Expect(reload(env, testPhone).HasPendingVerification()).To(BeTrue())
		})

		It("permite um único cadastro em registros concorrentes do mesmo telefone", func() {
			const attempts = 5
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				successes int
				conflicts int
			)
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := env.Users.Register(ctx, services.RegisterInput{
						FullName: testName, PhoneNumber: testPhone, Gender: "male", Password: testPassword,
					})
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						successes++
					case domainerrors.KindOf(err) == domainerrors.KindConflict:
						conflicts++
					default:
						Fail("erro inesperado: " + err.Error())
					}
				}()
			}
			wg.Wait()

			Expect(successes).To(Equal(1))
			Expect(conflicts).To(Equal(attempts - 1))

			_, total, err := env.Users.ListUsers(ctx, repositories.UserFilters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(BeEquivalentTo(1))
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			register(env, testPhone)
		})

		It("emite um bearer token que o access gate aceita, mesmo antes da verificação", func() {
			result, err := env.Users.Login(ctx, testPhone, testPassword)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.TokenType).To(Equal("bearer"))
			Expect(result.ExpiresIn).To(Equal(30 * time.Minute))
			Expect(result.User.PhoneNumber.String()).To(Equal(testPhone))

			user, err := env.Gate.Authenticate(ctx, result.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(Equal(result.User.ID))
		})

		DescribeTable("rejeita credenciais inválidas com a mesma resposta",
			func(phone, password string) {
				_, err := env.Users.Login(ctx, phone, password)
				Expect(err).To(MatchError(domainerrors.ErrInvalidCredentials))
				Expect(err).To(HaveKind(domainerrors.KindUnauthenticated))
			},
			Entry("senha errada", testPhone, "wrong-password"),
			Entry("telefone desconhecido", "+250788000999", testPassword),
			Entry("telefone malformado", "not-a-phone", testPassword),
		)

		It("recusa conta inativa com Forbidden independentemente da senha", func() {
			admin := makeAdmin(env, "+250788000900")
			user := reload(env, testPhone)
			_, err := env.Users.SetUserActive(ctx, admin, user.ID, false)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.Users.Login(ctx, testPhone, testPassword)
			Expect(err).To(MatchError(domainerrors.ErrAccountInactive))
			_, err = env.Users.Login(ctx, testPhone, "wrong-password")
			Expect(err).To(HaveKind(domainerrors.KindForbidden))
		})
	})

	Describe("ChangePassword", func() {
		var user *entities.User

		BeforeEach(func() {
			user = register(env, testPhone)
		})

		It("troca a senha quando a senha atual confere", func() {
			Expect(env.Users.ChangePassword(ctx, user, testPassword, "N3wPassw0rd!")).To(Succeed())

			_, err := env.Users.Login(ctx, testPhone, testPassword)
			Expect(err).To(MatchError(domainerrors.ErrInvalidCredentials))
			_, err = env.Users.Login(ctx, testPhone, "N3wPassw0rd!")
			Expect(err).NotTo(HaveOccurred())
			Expect(env.Publisher.Types()).To(ContainElement(entities.EventPasswordChanged))
		})

		It("rejeita senha atual errada", func() {
			err := env.Users.ChangePassword(ctx, user, "wrong-password", "N3wPassw0rd!")
			Expect(err).To(MatchError(domainerrors.ErrInvalidPassword))
			Expect(err).To(HaveErrorField("current_password"))
		})
	})

	Describe("SetUserActive", func() {
		var admin, user *entities.User

		BeforeEach(func() {
			admin = makeAdmin(env, "+250788000900")
			user = register(env, testPhone)
		})

		It("desativa e reativa uma conta publicando a mudança uma única vez", func() {
			updated, err := env.Users.SetUserActive(ctx, admin, user.ID, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.IsActive).To(BeFalse())

			before := len(env.Publisher.Events())
			_, err = env.Users.SetUserActive(ctx, admin, user.ID, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(env.Publisher.Events()).To(HaveLen(before))

			updated, err = env.Users.SetUserActive(ctx, admin, user.ID, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.IsActive).To(BeTrue())
		})

		It("impede o admin de desativar a própria conta", func() {
			_, err := env.Users.SetUserActive(ctx, admin, admin.ID, false)
			Expect(err).To(MatchError(domainerrors.ErrCannotDeactivateSelf))
			Expect(reload(env, "+250788000900").IsActive).To(BeTrue())
		})

		It("retorna NotFound para usuário inexistente", func() {
			_, err := env.Users.SetUserActive(ctx, admin, 9999, false)
			Expect(err).To(MatchError(domainerrors.ErrUserNotFound))
		})
	})

	Describe("GetUserForViewer", func() {
		It("permite o próprio usuário e admins, e recusa os demais", func() {
			alice := register(env, testPhone)
			bob := register(env, "+250788000222")
			admin := makeAdmin(env, "+250788000900")

			found, err := env.Users.GetUserForViewer(ctx, alice, alice.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal(alice.ID))

			_, err = env.Users.GetUserForViewer(ctx, bob, alice.ID)
			Expect(err).To(MatchError(domainerrors.ErrForbidden))

			found, err = env.Users.GetUserForViewer(ctx, admin, alice.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal(alice.ID))

			_, err = env.Users.GetUserForViewer(ctx, admin, 9999)
			Expect(err).To(HaveKind(domainerrors.KindNotFound))
		})
	})

	Describe("ListUsers", func() {
		It("filtra por role sem diferenciar maiúsculas e pagina", func() {
			register(env, testPhone)
			register(env, "+250788000222", entities.RolePharmacist)
			register(env, "+250788000333")

			role := "PATIENT"
			users, total, err := env.Users.ListUsers(ctx, repositories.UserFilters{Role: &role, PageSize: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(BeEquivalentTo(2))
			Expect(users).To(HaveLen(1))
			Expect(users[0].PhoneNumber.String()).To(Equal(testPhone))
		})
	})
})
