package inmemdb

import (
	"sync"

	"github.com/prepdesk/backend/core/collab"
	"github.com/prepdesk/backend/core/section"
	"github.com/prepdesk/backend/core/testconfig"
	"github.com/prepdesk/backend/core/user"
	"github.com/prepdesk/backend/core/visibility"
)

type (
	DB struct {
		user       *userTable
		section    *sectionTable
		config     *configTable
		visibility *visibilityTable
		collab     *collabTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	// attempt marks that a candidate attempted a test within a course section
	attempt struct {
		courseID  string
		sectionID string
		testID    string
	}

	sectionTable struct {
		sections map[string]*section.Section     // without entries
		tests    map[string]*section.SectionTest // entries, keyed by own ID
		attempts []attempt
		mutex    sync.RWMutex
	}

	configTable struct {
		table map[string]*testconfig.Config // keyed by ID
		mutex sync.RWMutex
	}

	visibilityTable struct {
		batches     map[string]*visibility.BatchDetails
		enrollments map[string]string // courseID -> batchID
		rules       map[string]*visibility.Rule
		mutex       sync.RWMutex
	}

	collabTable struct {
		collabs  map[string]*collab.Collaboration
		txs      map[string]*collab.Transaction
		trips    map[string]*collab.Trip
		payments map[string]*collab.PartnerPayment
		mutex    sync.RWMutex
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		section: &sectionTable{
			sections: make(map[string]*section.Section),
			tests:    make(map[string]*section.SectionTest),
		},
		config: &configTable{table: make(map[string]*testconfig.Config)},
		visibility: &visibilityTable{
			batches:     make(map[string]*visibility.BatchDetails),
			enrollments: make(map[string]string),
			rules:       make(map[string]*visibility.Rule),
		},
		collab: &collabTable{
			collabs:  make(map[string]*collab.Collaboration),
			txs:      make(map[string]*collab.Transaction),
			trips:    make(map[string]*collab.Trip),
			payments: make(map[string]*collab.PartnerPayment),
		},
	}
	return db, nil
}
