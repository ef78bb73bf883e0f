package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/jobrie31/trailers-contremaitres/catalog"
	"github.com/jobrie31/trailers-contremaitres/config"
	"github.com/jobrie31/trailers-contremaitres/db"
)

// Seeds a starter catalog: a few categories with their field schemas and
// some equipment. Intended for fresh projects; running it twice fails on
// the duplicate category names.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	cfg.Validate()

	// Initialize Firestore
	ctx := context.Background()
	firestoreDB, err := db.NewFirestoreDB(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firestore: %v", err)
	}
	defer firestoreDB.Close()

	log.Println("🌱 Starting database seeding...")

	if err := seedCatalog(ctx, catalog.NewService(firestoreDB)); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	log.Println("✅ Database seeding completed successfully!")
}

type seedCategorie struct {
	nom    string
	icon   string
	color  string
	fields []string
}

type seedEquipement struct {
	nom       string
	categorie string
	details   map[string]string
}

func seedCatalog(ctx context.Context, svc *catalog.Service) error {
	categories := []seedCategorie{
		{
			nom:    "Outils électriques",
			icon:   "🔌",
			color:  "#F59E0B",
			fields: []string{"Unité", "Voltage", "Marque"},
		},
		{
			nom:    "Échafaudage",
			icon:   "🏗️",
			color:  "#4F46E5",
			fields: []string{"Unité", "Longueur"},
		},
		{
			nom:    "Sécurité",
			icon:   "🦺",
			color:  "#DC2626",
			fields: []string{"Unité", "Grandeur"},
		},
	}

	catIDs := make(map[string]string, len(categories))
	fieldIDs := make(map[string]map[string]string, len(categories))
	for _, c := range categories {
		id, err := svc.CreateCategorie(ctx, c.nom, c.icon, c.color, c.fields)
		if err != nil {
			return fmt.Errorf("failed to create category %s: %w", c.nom, err)
		}
		catIDs[c.nom] = id

		// Re-read to learn the generated field ids, keyed by field name.
		grouped, err := svc.Grouped(ctx)
		if err != nil {
			return fmt.Errorf("failed to reload catalog: %w", err)
		}
		for _, g := range grouped.Groups {
			if g.Categorie.ID != id {
				continue
			}
			byNom := make(map[string]string, len(g.Categorie.Fields))
			for _, f := range g.Categorie.Fields {
				byNom[f.Nom] = f.ID
			}
			fieldIDs[c.nom] = byNom
		}
		log.Printf("  ✓ Created category: %s", c.nom)
	}

	equipements := []seedEquipement{
		{
			nom:       "Perceuse à percussion",
			categorie: "Outils électriques",
			details:   map[string]string{"Unité": "unité", "Voltage": "18V", "Marque": "Milwaukee"},
		},
		{
			nom:       "Scie circulaire",
			categorie: "Outils électriques",
			details:   map[string]string{"Unité": "unité", "Voltage": "120V", "Marque": "DeWalt"},
		},
		{
			nom:       "Madrier aluminium",
			categorie: "Échafaudage",
			details:   map[string]string{"Unité": "unité", "Longueur": "10 pi"},
		},
		{
			nom:       "Harnais",
			categorie: "Sécurité",
			details:   map[string]string{"Unité": "unité", "Grandeur": "Universel"},
		},
	}

	for _, e := range equipements {
		byNom := fieldIDs[e.categorie]
		details := make(map[string]string, len(e.details))
		for nom, value := range e.details {
			if fid, ok := byNom[nom]; ok {
				details[fid] = value
			}
		}

		if _, err := svc.CreateEquipement(ctx, e.nom, catIDs[e.categorie], details); err != nil {
			return fmt.Errorf("failed to create equipment %s: %w", e.nom, err)
		}
		log.Printf("  ✓ Created equipment: %s", e.nom)
	}

	return nil
}
