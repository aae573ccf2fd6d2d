package ledgerdelivery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("money", moneypkg.ValidMoney); err != nil {
			fmt.Fprintf(os.Stderr, "cannot register money validator: %v\n", err)
			os.Exit(1)
		}
	}

	os.Exit(m.Run())
}

var cmpOpts = []cmp.Option{
	cmpopts.EquateApproxTime(time.Second),
	cmp.Comparer(func(x, y decimal.Decimal) bool { return x.Equal(y) }),
}

// decimalEq matches decimals by value, ignoring the exponent.
type decimalEq struct {
	want decimal.Decimal
}

func (m decimalEq) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalEq) String() string {
	return "is equal to " + m.want.String()
}

// transferEq matches transfer params by value.
type transferEq struct {
	want domain.TransferParams
}

func (m transferEq) Matches(x any) bool {
	p, ok := x.(domain.TransferParams)

	return ok && p.SourceID == m.want.SourceID &&
		p.TargetID == m.want.TargetID &&
		p.Amount.Equal(m.want.Amount)
}

func (m transferEq) String() string {
	return fmt.Sprintf("is equal to %+v", m.want)
}

func randomAccount(balance decimal.Decimal) domain.Account {
	return domain.Account{
		ID:        randompkg.ID(),
		Email:     randompkg.Email(),
		Balance:   balance,
		CreatedAt: time.Now().UTC(),
	}
}

func setupServer(t *testing.T, buildStubs func(s *MockService)) *gin.Engine {
	t.Helper()

	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	buildStubs(service)

	h := NewHandler(service)

	server := gin.New()
	server.POST("/accounts/:id/deposit", h.Deposit)
	server.POST("/accounts/:id/withdraw", h.Withdraw)
	server.POST("/accounts/:id/transfer/:target", h.Transfer)

	return server
}

func send(t *testing.T, server *gin.Engine, url, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	return recorder
}

func TestDeposit(t *testing.T) {
	account := randomAccount(decimal.RequireFromString("150.25"))
	url := fmt.Sprintf("/accounts/%d/deposit", account.ID)

	testCases := []struct {
		name           string
		url            string
		body           string
		buildStubs     func(s *MockService)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "OK",
			url:  url,
			body: `{"amount": 50.25}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().
					Deposit(gomock.Any(), gomock.Eq(account.ID), decimalEq{decimal.RequireFromString("50.25")}).
					Times(1).
					Return(account, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "NumericString",
			url:  url,
			body: `{"amount": "50.25"}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().
					Deposit(gomock.Any(), gomock.Eq(account.ID), decimalEq{decimal.RequireFromString("50.25")}).
					Times(1).
					Return(account, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "MissingAmount",
			url:  url,
			body: `{}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().Deposit(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Amount field is required",
		},
		{
			name: "NegativeAmount",
			url:  url,
			body: `{"amount": -10}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().Deposit(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Amount must be a positive amount with at most 2 decimal places",
		},
		{
			name: "ZeroAmount",
			url:  url,
			body: `{"amount": 0}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().Deposit(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Amount must be a positive amount with at most 2 decimal places",
		},
		{
			name: "TooPrecise",
			url:  url,
			body: `{"amount": 0.001}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().Deposit(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Amount must be a positive amount with at most 2 decimal places",
		},
		{
			name: "HugeExponent",
			url:  url,
			body: `{"amount": 1e999999}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().Deposit(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Amount must be a positive amount with at most 2 decimal places",
		},
		{
			name: "AboveMaxAmount",
			url:  url,
			body: `{"amount": 1000000000000000000}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().Deposit(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Amount must be a positive amount with at most 2 decimal places",
		},
		{
			name: "BalanceLimitExceeded",
			url:  url,
			body: `{"amount": 0.01}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().
					Deposit(gomock.Any(), gomock.Eq(account.ID), decimalEq{decimal.RequireFromString("0.01")}).
					Times(1).
					Return(domain.Account{}, domain.ErrBalanceLimitExceeded)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrBalanceLimitExceeded.Error(),
		},
		{
			name: "InvalidID",
			url:  "/accounts/0/deposit",
			body: `{"amount": 1}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().Deposit(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "ID field is required",
		},
		{
			name: "NotFound",
			url:  url,
			body: `{"amount": 1}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().
					Deposit(gomock.Any(), gomock.Eq(account.ID), gomock.Any()).
					Times(1).
					Return(domain.Account{}, domain.NotFound(account.ID))
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      fmt.Sprintf("account %d not found", account.ID),
		},
		{
			name: "Unavailable",
			url:  url,
			body: `{"amount": 1}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().
					Deposit(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.Account{}, errorspkg.ErrUnavailable)
			},
			wantStatusCode: http.StatusServiceUnavailable,
			wantError:      errorspkg.ErrUnavailable.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			server := setupServer(t, tc.buildStubs)
			recorder := send(t, server, tc.url, tc.body)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			got := dataAccount{}
			res := web.Response{Data: &got}

			if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
				t.Fatalf("Decoding response body error: %v", err)
			}

			if tc.wantStatusCode != http.StatusOK {
				if res.Error != tc.wantError {
					t.Errorf(`resp.Error=%q, want %q`, res.Error, tc.wantError)
				}

				return
			}

			want := dataAccount{Message: MsgDeposited, Account: account}
			if diff := cmp.Diff(want, got, cmpOpts...); diff != "" {
				t.Errorf("res.Data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWithdraw(t *testing.T) {
	account := randomAccount(decimal.RequireFromString("10"))
	url := fmt.Sprintf("/accounts/%d/withdraw", account.ID)

	testCases := []struct {
		name           string
		body           string
		buildStubs     func(s *MockService)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "OK",
			body: `{"amount": 40}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().
					Withdraw(gomock.Any(), gomock.Eq(account.ID), decimalEq{decimal.NewFromInt(40)}).
					Times(1).
					Return(account, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "InsufficientBalance",
			body: `{"amount": 40}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().
					Withdraw(gomock.Any(), gomock.Eq(account.ID), gomock.Any()).
					Times(1).
					Return(domain.Account{}, domain.ErrInsufficientBalance)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrInsufficientBalance.Error(),
		},
		{
			name: "MalformedBody",
			body: `{"amount": "ten"}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().Withdraw(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "InternalServerError",
			body: `{"amount": 40}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().
					Withdraw(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.Account{}, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			server := setupServer(t, tc.buildStubs)
			recorder := send(t, server, url, tc.body)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			got := dataAccount{}
			res := web.Response{Data: &got}

			if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
				t.Fatalf("Decoding response body error: %v", err)
			}

			switch {
			case tc.wantStatusCode == http.StatusOK:
				want := dataAccount{Message: MsgWithdrawn, Account: account}
				if diff := cmp.Diff(want, got, cmpOpts...); diff != "" {
					t.Errorf("res.Data mismatch (-want +got):\n%s", diff)
				}
			case tc.wantError != "":
				if res.Error != tc.wantError {
					t.Errorf(`resp.Error=%q, want %q`, res.Error, tc.wantError)
				}
			default:
				if res.Error == "" {
					t.Error("resp.Error is empty, want a message")
				}
			}
		})
	}
}

func TestTransfer(t *testing.T) {
	source := randomAccount(decimal.NewFromInt(50))
	target := randomAccount(decimal.NewFromInt(50))
	url := fmt.Sprintf("/accounts/%d/transfer/%d", source.ID, target.ID)
	params := domain.TransferParams{SourceID: source.ID, TargetID: target.ID, Amount: decimal.NewFromInt(50)}

	testCases := []struct {
		name           string
		url            string
		body           string
		buildStubs     func(s *MockService)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "OK",
			url:  url,
			body: `{"amount": 50}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().
					Transfer(gomock.Any(), transferEq{params}).
					Times(1).
					Return(domain.TransferResult{Source: source, Target: target}, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "InvalidTarget",
			url:  fmt.Sprintf("/accounts/%d/transfer/-3", source.ID),
			body: `{"amount": 50}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Target must be at least 1",
		},
		{
			name: "SameAccount",
			url:  fmt.Sprintf("/accounts/%d/transfer/%d", source.ID, source.ID),
			body: `{"amount": 50}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().
					Transfer(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.TransferResult{}, domain.ErrSameAccount)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrSameAccount.Error(),
		},
		{
			name: "InsufficientBalance",
			url:  url,
			body: `{"amount": 50}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().
					Transfer(gomock.Any(), transferEq{params}).
					Times(1).
					Return(domain.TransferResult{}, domain.ErrInsufficientBalance)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrInsufficientBalance.Error(),
		},
		{
			name: "SourceNotFound",
			url:  url,
			body: `{"amount": 50}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().
					Transfer(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.TransferResult{}, domain.ErrSourceAccountNotFound)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrSourceAccountNotFound.Error(),
		},
		{
			name: "TargetNotFound",
			url:  url,
			body: `{"amount": 50}`,
			buildStubs: func(s *MockService) {
				s.EXPECT().
					Transfer(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.TransferResult{}, domain.ErrTargetAccountNotFound)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrTargetAccountNotFound.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			server := setupServer(t, tc.buildStubs)
			recorder := send(t, server, tc.url, tc.body)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			got := dataTransfer{}
			res := web.Response{Data: &got}

			if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
				t.Fatalf("Decoding response body error: %v", err)
			}

			if tc.wantStatusCode != http.StatusOK {
				if res.Error != tc.wantError {
					t.Errorf(`resp.Error=%q, want %q`, res.Error, tc.wantError)
				}

				return
			}

			want := dataTransfer{Message: MsgTransferred, Source: source, Target: target}
			if diff := cmp.Diff(want, got, cmpOpts...); diff != "" {
				t.Errorf("res.Data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
