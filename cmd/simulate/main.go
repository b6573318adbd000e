package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net"
	"net/http"
	"sync"
	"time"

	"hotel-payment-confirm/internal/confirmation"
	"hotel-payment-confirm/internal/domain"
	"hotel-payment-confirm/internal/infrastructure/backend"
	"hotel-payment-confirm/internal/infrastructure/payment"
	"hotel-payment-confirm/internal/logger"
	"hotel-payment-confirm/internal/sandbox"
	"hotel-payment-confirm/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	n := flag.Int("n", 20, "number of bookings to confirm")
	interval := flag.Duration("interval", 200*time.Millisecond, "poll interval")
	attempts := flag.Int("attempts", 5, "poll attempts after the initial check")
	flag.Parse()

	zl, err := logger.New("development")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	gin.SetMode(gin.ReleaseMode)
	sb := sandbox.NewBackend(zl.Named("sandbox"))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		zl.Fatal("Failed to listen", zap.Error(err))
	}
	srv := &http.Server{Handler: sb.Handler()}
	go srv.Serve(ln) //nolint:errcheck
	defer srv.Close()

	client := backend.NewClient("http://"+ln.Addr().String(), "", 5*time.Second)
	gateway := payment.NewPaymentGateway(client)
	store := service.NewBookingStore(client, gateway)
	controller := confirmation.NewController(
		store, store, gateway,
		payment.Merchant{AppID: 2553, UserID: "simulator"},
		confirmation.Policies{Default: confirmation.Policy{Interval: *interval, MaxAttempts: *attempts}},
		zap.NewNop(),
	)

	ctx := context.Background()
	methods := []domain.PaymentMethod{domain.MethodVNPay, domain.MethodZaloPay}

	fmt.Printf("--- STARTING SIMULATION (%d BOOKINGS) ---\n", *n)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[domain.Phase]int)
	)
	for i := 0; i < *n; i++ {
		checkIn := time.Now().AddDate(0, 0, 7+i).Truncate(24 * time.Hour)
		created, err := store.Create(ctx, domain.CreateBookingRequest{
			RoomID:        fmt.Sprintf("R%03d", 100+i),
			HotelID:       "H1",
			CheckIn:       checkIn,
			CheckOut:      checkIn.AddDate(0, 0, 1+rand.IntN(3)),
			PaymentMethod: methods[rand.IntN(len(methods))],
			ContactInfo:   domain.ContactInfo{Name: fmt.Sprintf("Guest %d", i+1)},
			Guests:        1 + rand.IntN(3),
		})
		if err != nil {
			fmt.Printf("[%d] Create failed: %v\n", i+1, err)
			continue
		}
		if created.Payment == nil {
			continue
		}

		flow, err := controller.Start(ctx, confirmation.Request{
			TransactionID: created.Payment.TransactionID,
			BookingID:     created.Booking.ID,
		})
		if err != nil {
			fmt.Printf("[%d] Start failed: %v\n", i+1, err)
			continue
		}

		wg.Add(1)
		go func(i int, bk domain.Booking, flow *confirmation.Flow) {
			defer wg.Done()
			final, err := flow.Wait(ctx)
			if err != nil {
				fmt.Printf("[%d] %s: %v\n", i+1, bk.ID, err)
				return
			}
			stored, _ := sb.Booking(bk.ID)

			mu.Lock()
			results[final.Phase]++
			mu.Unlock()

			fmt.Printf("[%d] %-7s booking %s -> %-19s attempts=%d backend=%s\n",
				i+1, bk.PaymentMethod, bk.ID, final.Phase, final.Attempts, stored.PaymentStatus)
		}(i, created.Booking, flow)
	}

	wg.Wait()

	fmt.Println("---------------------------------------------------")
	for _, phase := range []domain.Phase{domain.PhasePaid, domain.PhasePendingUnconfirmed, domain.PhaseFailed} {
		fmt.Printf("%-19s %d\n", phase, results[phase])
	}
	fmt.Printf("zalopay callbacks   %d\n", len(sb.Callbacks()))
}
