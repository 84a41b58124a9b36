package mem_test

import (
	"log"
	"os"
	"testing"

	"github.com/OctaForge/libcubescript-sub000/internal/logio"
	"github.com/OctaForge/libcubescript-sub000/internal/mem"
	"github.com/OctaForge/libcubescript-sub000/internal/panicerr"
	"github.com/stretchr/testify/require"
)

func Test_Buffer(t *testing.T) {
	for _, tc := range []bufTestCase{
		bufTest("basic",
			"init", func(t *testing.T, m *mem.Buffer[uint32]) {
				m.PageSize = 4
				val, err := m.Load(0)
				require.NoError(t, err, "unexpected load error")
				require.Equal(t, uint32(0), val, "expected 0 @0")
				require.Equal(t, uint(0), m.Size(), "expected 0 initial size")
			},

			"9 -> 0", func(t *testing.T, m *mem.Buffer[uint32]) {
				require.NoError(t, m.Stor(0, 9), "must stor @0")
				val, err := m.Load(0)
				require.NoError(t, err, "unexpected load error")
				require.Equal(t, uint32(9), val, "expected 9 @0")
				//  0  1  2  3  :  9  0  0  0
				//  4  5  6  7  :  -  -  -  -
				//  8  9  a  b  :  -  -  -  -
				//  c  d  e  f  :  -  -  -  -
				// 10 11 12 13  :  -  -  -  -
				expectMemValuesAt(t, m, 6,
					0, 0,
					0, 0, 0, 0,
					0, 0, 0, 0,
					0, 0)
			},

			"{1, 2, 3, 4, 5, 6} -> 0x9", func(t *testing.T, m *mem.Buffer[uint32]) {
				require.NoError(t, m.Stor(0x9, 1, 2, 3, 4, 5, 6), "must stor @0x9")
				require.Equal(t, mem.Dump[uint32]{
					Bases: []uint{0x0, 0x8, 0xc},
					Sizes: []uint{4, 4, 4},
					Pages: [][]uint32{
						{9, 0, 0, 0},
						{0, 1, 2, 3},
						{4, 5, 6, 0},
					},
				}, m.Dump(), "expected a page hole")
				//  0  1  2  3  :  9  0  0  0
				//  4  5  6  7  :  -  -  -  -
				//  8  9  a  b  :  0  1  2  3
				//  c  d  e  f  :  4  5  6  0
				// 10 11 12 13  :  -  -  -  -
				expectMemValuesAt(t, m, 6,
					0, 0,
					0, 1, 2, 3,
					4, 5, 6, 0,
					0, 0)
			},

			"7 -> 0xf", func(t *testing.T, m *mem.Buffer[uint32]) {
				require.NoError(t, m.Stor(0xf, 7), "must stor @0xf")
				{
					val, err := m.Load(0xf)
					require.NoError(t, err, "unexpected load error")
					require.Equal(t, uint32(7), val, "expected 7 @0xf")
				}
				{
					val, err := m.Load(0xe)
					require.NoError(t, err, "unexpected load error")
					require.Equal(t, uint32(6), val, "expected 6 @0xe")
				}
				//  0  1  2  3  :  9  0  0  0
				//  4  5  6  7  :  -  -  -  -
				//  8  9  a  b  :  0  1  2  3
				//  c  d  e  f  :  4  5  6  7
				// 10 11 12 13  :  -  -  -  -
				expectMemValuesAt(t, m, 6,
					0, 0,
					0, 1, 2, 3,
					4, 5, 6, 7,
					0, 0)
			},
		),

		bufTest("append grows contiguously",
			"three appends", func(t *testing.T, m *mem.Buffer[uint32]) {
				m.PageSize = 4
				a0, err := m.Append(10, 11)
				require.NoError(t, err)
				require.Equal(t, uint(0), a0)
				a1, err := m.Append(12)
				require.NoError(t, err)
				require.Equal(t, uint(2), a1)
				require.Equal(t, uint(3), m.Size())
				expectMemValuesAt(t, m, 0, 10, 11, 12)
			},
		),

		bufTest("limit enforced",
			"exceeding Limit errors", func(t *testing.T, m *mem.Buffer[uint32]) {
				m.PageSize = 4
				m.Limit = 4
				_, err := m.Append(1, 2, 3, 4, 5)
				require.Error(t, err)
				var lim mem.LimitError
				require.ErrorAs(t, err, &lim)
			},
		),
	} {
		t.Run(tc.name, func(t *testing.T) {
			tcLogOut := &logio.Writer{Logf: t.Logf}
			log.SetOutput(tcLogOut)
			defer log.SetOutput(os.Stderr)

			var m mem.Buffer[uint32]
			defer func() {
				if t.Failed() {
					d := m.Dump()
					t.Logf("bases: %v", d.Bases)
					t.Logf("sizes: %v", d.Sizes)
					t.Logf("pages: %v", d.Pages)
				}
			}()

			for _, step := range tc.steps {
				if !t.Run(step.name, func(t *testing.T) {
					stepLogOut := &logio.Writer{Logf: t.Logf}
					log.SetOutput(stepLogOut)
					defer log.SetOutput(tcLogOut)

					isolateTest(t, step.bind(&m))
				}) {
					break
				}
			}
		})
	}
}

func isolateTest(t *testing.T, f func(t *testing.T)) {
	if err := panicerr.Recover(t.Name(), func() error {
		f(t)
		return nil
	}); err != nil {
		t.Logf("%+v", err)
		t.Fail()
	}
}

func expectMemValuesAt(t *testing.T, m *mem.Buffer[uint32], addr uint, values ...uint32) {
	buf := make([]uint32, len(values))
	require.NoError(t, m.LoadInto(addr, buf),
		"must load %v values from @0x%x", len(values), addr)
	require.Equal(t, values, buf, "expected values @0x%x", addr)
}

func bufTest(name string, args ...interface{}) (tc bufTestCase) {
	tc.name = name
	for i := 0; i < len(args); i++ {
		var step bufTestStep

		step.name = args[i].(string)

		if i++; i >= len(args) {
			panic("bufTest: missing function argument after name")
		}
		step.f = args[i].(func(t *testing.T, m *mem.Buffer[uint32]))

		tc.steps = append(tc.steps, step)
	}
	return tc
}

type bufTestCase struct {
	name  string
	steps []bufTestStep
}

type bufTestStep struct {
	name string
	f    func(t *testing.T, m *mem.Buffer[uint32])

	m *mem.Buffer[uint32]
}

func (step bufTestStep) bind(m *mem.Buffer[uint32]) func(t *testing.T) {
	step.m = m
	return step.boundTest
}

func (step bufTestStep) boundTest(t *testing.T) {
	step.f(t, step.m)
}
