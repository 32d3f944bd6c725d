package mockstore

import (
	"time"

	"github.com/trezcool/masomo-portal/core/calendar"
	"github.com/trezcool/masomo-portal/core/news"
	"github.com/trezcool/masomo-portal/core/notice"
	"github.com/trezcool/masomo-portal/core/user"
)

// Credential is a published mock login.
type Credential struct {
	Username string
	Password string
	Role     string
}

// Credentials are the logins seeded in the mock users.
var Credentials = []Credential{
	{Username: "admin", Password: "admin123", Role: user.RoleAdmin},
	{Username: "user", Password: "user123", Role: user.RoleUser},
}

var (
	seedAdmin   = user.Ref{ID: "00000000-0000-0000-0000-000000000001", Name: "Administrateur"}
	seedUser    = user.Ref{ID: "00000000-0000-0000-0000-000000000002", Name: "Utilisateur"}
	seedTeacher = user.Ref{ID: "00000000-0000-0000-0000-000000000003", Name: "Amani Kahindo"}
)

func seedUsers(cost int) func(now time.Time) ([]userRecord, error) {
	return func(now time.Time) ([]userRecord, error) {
		recs := []userRecord{
			{User: user.User{ID: seedAdmin.ID, Name: seedAdmin.Name, Username: "admin", Email: "admin@masomo.test", Role: user.RoleAdmin, IsActive: true}},
			{User: user.User{ID: seedUser.ID, Name: seedUser.Name, Username: "user", Email: "user@masomo.test", Role: user.RoleUser, Course: "L1", IsActive: true}},
			{User: user.User{ID: seedTeacher.ID, Name: seedTeacher.Name, Username: "akahindo", Email: "amani@masomo.test", Role: user.RoleUser, Course: "L2", IsActive: true}},
			{User: user.User{ID: "00000000-0000-0000-0000-000000000004", Name: "Furaha Mbuyi", Username: "fmbuyi", Email: "furaha@masomo.test", Role: user.RoleUser, Course: "L1", IsActive: false}},
		}
		pwds := map[string]string{}
		for _, c := range Credentials {
			pwds[c.Username] = c.Password
		}
		for i := range recs {
			recs[i].CreatedAt = now.Add(time.Duration(i-len(recs)) * 24 * time.Hour)
			recs[i].UpdatedAt = recs[i].CreatedAt
			if pwd, ok := pwds[recs[i].Username]; ok {
				if err := recs[i].setPassword(pwd, cost); err != nil {
					return nil, err
				}
			}
		}
		return recs, nil
	}
}

func seedNews(now time.Time) ([]news.News, error) {
	day := 24 * time.Hour
	items := []news.News{
		{
			ID: "news-1", Title: "Rentrée académique", Category: "academic", Published: true,
			Summary: "La rentrée est fixée au premier lundi du mois.",
			Content: "Les cours reprendront le premier lundi du mois. Les inscriptions restent ouvertes jusqu'à la fin de la semaine.",
			Author:  seedAdmin, PublishedAt: now.Add(-10 * day),
		},
		{
			ID: "news-2", Title: "Résultats des examens", Category: "exams", Published: true,
			Summary: "Les résultats du premier semestre sont disponibles.",
			Content: "Les résultats sont affichés au secrétariat et disponibles en ligne.",
			Author:  seedTeacher, PublishedAt: now.Add(-3 * day),
		},
		{
			ID: "news-3", Title: "Tournoi de football", Category: "sports", Published: true,
			Content: "Le tournoi inter-promotions commence samedi sur le terrain principal.",
			Author:  seedTeacher, PublishedAt: now.Add(-1 * day),
		},
		{
			ID: "news-4", Title: "Nouvelle bibliothèque", Category: "campus",
			Content: "Brouillon : ouverture de la nouvelle bibliothèque.",
			Author:  seedAdmin,
		},
	}
	for i := range items {
		items[i].CreatedAt = now.Add(time.Duration(i-len(items)) * day)
		items[i].UpdatedAt = items[i].CreatedAt
	}
	return items, nil
}

func seedNotices(now time.Time) ([]notice.Notice, error) {
	day := 24 * time.Hour
	items := []notice.Notice{
		{
			ID: "notice-1", Title: "Paiement des frais", Priority: notice.PriorityHigh,
			Content: "Les frais du second semestre doivent être réglés avant la fin du mois.",
			Author:  seedAdmin, Recipients: []user.Ref{}, ReadBy: []string{},
		},
		{
			ID: "notice-2", Title: "Salle changée", Priority: notice.PriorityNormal,
			Content: "Le cours d'algorithmique a lieu en salle B12.",
			Author:  seedTeacher, Recipients: []user.Ref{seedUser}, ReadBy: []string{},
		},
		{
			ID: "notice-3", Title: "Coupure d'électricité", Priority: notice.PriorityUrgent,
			Content: "Coupure prévue ce week-end.",
			Author:  seedAdmin, Recipients: []user.Ref{}, ReadBy: []string{seedAdmin.ID},
			ExpiresAt: now.Add(7 * day),
		},
	}
	for i := range items {
		items[i].CreatedAt = now.Add(time.Duration(i-len(items)) * day)
		items[i].UpdatedAt = items[i].CreatedAt
	}
	return items, nil
}

func seedEvents(now time.Time) ([]calendar.Event, error) {
	day := 24 * time.Hour
	start := now.Truncate(time.Hour)
	items := []calendar.Event{
		{
			ID: "event-1", Title: "Cours d'algorithmique", Type: calendar.TypeClass, Course: "L1", Location: "B12",
			StartDate: start.Add(day), EndDate: start.Add(day + 2*time.Hour),
		},
		{
			ID: "event-2", Title: "Examen de mathématiques", Type: calendar.TypeExam, Course: "L2", Location: "Amphi A",
			StartDate: start.Add(5 * day), EndDate: start.Add(5*day + 3*time.Hour),
		},
		{
			ID: "event-3", Title: "Réunion des parents", Type: calendar.TypeMeeting, Location: "Salle polyvalente",
			StartDate: start.Add(-2 * day), EndDate: start.Add(-2*day + time.Hour),
		},
		{
			ID: "event-4", Title: "Vacances", Type: calendar.TypeHoliday, AllDay: true,
			StartDate: start.Add(20 * day), EndDate: start.Add(34 * day),
		},
	}
	for i := range items {
		items[i].CreatedBy = seedAdmin
		items[i].CreatedAt = now.Add(-30 * day)
		items[i].UpdatedAt = items[i].CreatedAt
	}
	return items, nil
}
