//-------------------------------------------------------------------------
//
// pgEdge Sales ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"testing"
	"time"
)

func TestNewFaker(t *testing.T) {
	f := NewFaker()
	if f == nil {
		t.Fatal("NewFaker returned nil")
	}
	if f.faker == nil {
		t.Fatal("faker field is nil")
	}
}

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		v1 := f1.Int(0, 1000)
		v2 := f2.Int(0, 1000)
		if v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
	}
}

func TestFakerNames(t *testing.T) {
	f := NewFaker()
	if f.FirstName() == "" {
		t.Error("FirstName returned empty string")
	}
	if f.LastName() == "" {
		t.Error("LastName returned empty string")
	}
	if f.City() == "" {
		t.Error("City returned empty string")
	}
	if f.ProductName() == "" {
		t.Error("ProductName returned empty string")
	}
}

func TestFakerPrice(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		p := f.Price(10.0, 100.0)
		if p < 10.0 || p > 100.0 {
			t.Errorf("Price %f out of range [10, 100]", p)
		}
	}
}

func TestFakerDateRange(t *testing.T) {
	f := NewFaker()
	start := time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2017, 12, 31, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 100; i++ {
		d := f.DateRange(start, end)
		if d.Before(start) || d.After(end) {
			t.Errorf("Date %v out of range [%v, %v]", d, start, end)
		}
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		n := f.Int(1, 14)
		if n < 1 || n > 14 {
			t.Errorf("Int %d out of range [1, 14]", n)
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFaker()
	items := []string{"Consumer", "Corporate", "Home Office"}

	for i := 0; i < 100; i++ {
		got := Choose(f, items)
		found := false
		for _, item := range items {
			if got == item {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Choose returned %q, not in items", got)
		}
	}
}

func TestChooseEmpty(t *testing.T) {
	f := NewFaker()
	if got := Choose(f, []string{}); got != "" {
		t.Errorf("Choose on empty slice returned %q", got)
	}
}
