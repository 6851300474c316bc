package transformer

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"hanami/internal/sales"
)

type stage struct {
	name string
	err  error
	ran  *[]string
}

func (s stage) Name() string { return s.name }

func (s stage) Apply(ds *sales.Dataset) (*sales.Dataset, error) {
	*s.ran = append(*s.ran, s.name)
	if s.err != nil {
		return nil, s.err
	}
	return ds.WithRows(append(ds.Rows, sales.Sale{ID: s.name})), nil
}

func TestChain_RunsInOrder(t *testing.T) {
	t.Parallel()

	var ran []string
	c := Chain{stage{name: "a", ran: &ran}, stage{name: "b", ran: &ran}}

	out, err := c.Apply(sales.NewDataset(nil, nil))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Len() != 2 || out.Rows[1].ID != "b" {
		t.Fatalf("rows = %+v", out.Rows)
	}
	if !reflect.DeepEqual(ran, []string{"a", "b"}) {
		t.Fatalf("ran = %v", ran)
	}
}

func TestChain_StopsAtFirstError(t *testing.T) {
	t.Parallel()

	var ran, observed []string
	boom := errors.New("boom")
	c := Chain{
		stage{name: "a", ran: &ran},
		stage{name: "b", err: boom, ran: &ran},
		stage{name: "c", ran: &ran},
	}

	out, err := c.Run(sales.NewDataset(nil, nil), func(name string, err error, _ time.Duration) {
		observed = append(observed, name)
	})
	if !errors.Is(err, boom) || out != nil {
		t.Fatalf("Run = %v, %v; want nil, boom", out, err)
	}
	if !reflect.DeepEqual(ran, []string{"a", "b"}) || !reflect.DeepEqual(observed, ran) {
		t.Fatalf("ran = %v, observed = %v", ran, observed)
	}
}
