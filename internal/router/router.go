package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"petcare-backend/docs"
	"petcare-backend/internal/adapters/payments/mockpay"
	mem "petcare-backend/internal/adapters/storage/memory"
	pg "petcare-backend/internal/adapters/storage/postgres"
	"petcare-backend/internal/domain/booking"
	"petcare-backend/internal/domain/news"
	"petcare-backend/internal/domain/orders"
	"petcare-backend/internal/domain/pets"
	"petcare-backend/internal/domain/products"
	"petcare-backend/internal/domain/users"
	"petcare-backend/internal/middleware"
	"petcare-backend/internal/platform/logger"
	"petcare-backend/internal/platform/respond"
	"petcare-backend/internal/ports/auth"
	"petcare-backend/internal/ports/payments"
	"petcare-backend/internal/ports/tx"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	TokenIssuer  auth.TokenIssuer  // nil => login deshabilitado
	DebugHeaders bool              // X-Debug-User-ID / X-Debug-User-Role

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Payments payments.Provider // nil => mockpay que aprueba todo
	Logger   logger.Logger

	// Zona horaria para "hoy" en reservas. nil => UTC.
	Location           *time.Location
	ReminderWindowDays int
	BcryptCost         int

	// Si ambos vienen se asegura la cuenta admin al arrancar.
	AdminEmail    string
	AdminPassword string
}

type repositories struct {
	users        users.Repository
	pets         pets.Repository
	products     products.Repository
	appointments booking.Repository
	orders       orders.Repository
	news         news.Repository
	tx           tx.Manager
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	provider := opts.Payments
	if provider == nil {
		provider = mockpay.New(1)
	}
	windowDays := opts.ReminderWindowDays
	if windowDays <= 0 {
		windowDays = 30
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover(log))

	r.Use(middleware.AuthContext(opts.AuthVerifier, opts.DebugHeaders))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.Success(w, http.StatusOK, "ok", respond.Fields{"time": time.Now().UTC()})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.InstanceName(docs.SwaggerInfo.InstanceName()),
	))

	repos := newRepositories(opts.DB)

	// Services por módulo
	usersSvc := users.NewService(repos.users, users.NewBcryptHasher(opts.BcryptCost), opts.TokenIssuer, log)
	petsSvc := pets.NewService(repos.pets)
	productsSvc := products.NewService(repos.products)
	bookingSvc := booking.NewService(repos.appointments, repos.tx, petsSvc, staffDirectory{usersSvc}, log, opts.Location)
	ordersSvc := orders.NewService(repos.orders, productsSvc, repos.tx, provider, log)
	newsSvc := news.NewService(repos.news, authorDirectory{usersSvc}, log)

	if opts.AdminEmail != "" && opts.AdminPassword != "" {
		if _, err := usersSvc.EnsureAdmin(context.Background(), opts.AdminEmail, opts.AdminPassword); err != nil {
			log.Error("admin bootstrap failed", map[string]any{"error": err.Error()})
		}
	}

	// Rutas por módulo
	users.RegisterRoutes(r, usersSvc)
	pets.RegisterRoutes(r, petsSvc, windowDays)
	products.RegisterRoutes(r, productsSvc)
	booking.RegisterRoutes(r, bookingSvc)
	orders.RegisterRoutes(r, ordersSvc)
	news.RegisterRoutes(r, newsSvc)

	return r
}

func newRepositories(db *sql.DB) repositories {
	if db != nil {
		return repositories{
			users:        pg.NewUsersRepo(db),
			pets:         pg.NewPetsRepo(db),
			products:     pg.NewProductsRepo(db),
			appointments: pg.NewAppointmentsRepo(db),
			orders:       pg.NewOrdersRepo(db),
			news:         pg.NewNewsRepo(db),
			tx:           pg.NewTxManager(db),
		}
	}

	store := mem.NewStore()
	return repositories{
		users:        store.Users(),
		pets:         store.Pets(),
		products:     store.Products(),
		appointments: store.Appointments(),
		orders:       store.Orders(),
		news:         store.News(),
		tx:           store,
	}
}
